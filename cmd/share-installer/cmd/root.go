package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/build-installer/internal/service/shareinstaller"
	"github.com/oshokin/build-installer/internal/version"
)

var (
	// options collects flag values for the share installer run.
	options shareinstaller.Options

	// rootCmd installs the newest nightly build from the installer share.
	rootCmd = &cobra.Command{
		Use:          "share-installer",
		Short:        "Install the newest nightly build from the mounted installer share",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := options

			return shareinstaller.Run(ctx, &opts)
		},
	}
)

// Execute runs the share-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.Release, "release", "r", "", "release to install as YY-Q")
	flags.StringVar(&options.ShareRoot, "share", "", `installer share root, e.g. M:\installers`)
	flags.StringVar(&options.ConfigPath, "config", "", "path to configuration file")
	flags.StringVar(&options.LogLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
}
