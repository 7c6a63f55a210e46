package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/service/installer"
	"github.com/oshokin/build-installer/internal/version"
)

var (
	// options collects flag values for the installer run.
	options installer.Options

	// rootCmd locates, downloads and installs a suite bundle.
	rootCmd = &cobra.Command{
		Use:   "bundle-installer <academic|general|advanced|desres> <NB|OB>",
		Short: "Download and install the newest suite bundle from the build server",
		Long: "Finds the newest build of a release that publishes an installer for the requested\n" +
			"bundle and this platform, downloads it and replaces the local installation when\n" +
			"the installed build is outdated.",
		Args:         cobra.ExactArgs(2),
		ValidArgs:    append(suite.BundleTypes(), suite.BuildTypes()...),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts := options
			opts.BundleType = args[0]
			opts.BuildType = args[1]

			return installer.Run(ctx, &opts)
		},
	}
)

// Execute runs the bundle-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.DownloadDir, "download-dir", "c", "", "directory receiving the bundle (default ~/Downloads)")
	flags.StringVarP(&options.InstallDir, "install-dir", "i", "", "parent of the installation directory, not available on Windows")
	flags.BoolVarP(&options.DownloadOnly, "download-only", "d", false, "download the bundle without installing it")
	flags.StringVarP(&options.Release, "release", "r", "", "release to install as YY-Q (default newest published)")
	flags.StringVarP(&options.Build, "build", "b", "", "install this build number instead of the newest one")
	flags.BoolVar(&options.KNIME, "knime", false, "install the KNIME flavour (macOS general and advanced bundles)")
	flags.StringVar(&options.ConfigPath, "config", "", "path to configuration file")
	flags.StringVar(&options.LogLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
}
