package shareinstaller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/build-installer/internal/config"
	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
	installrepo "github.com/oshokin/build-installer/internal/repository/install"
	"github.com/oshokin/build-installer/internal/service/common"
	"github.com/oshokin/build-installer/internal/service/install"
	"github.com/oshokin/build-installer/internal/service/installer"
	"github.com/oshokin/build-installer/internal/service/share"
	"github.com/oshokin/build-installer/internal/service/uninstall"
)

var (
	errReleaseRequired = errors.New("a release is required: pass --release or set default_release")
	errShareRequired   = errors.New("a share root is required: pass --share or set share_root")
)

// Options are inputs accepted by the share installer entry point.
type Options struct {
	// Release to install (YY-Q or YYYY-Q). Falls back to default_release.
	Release string
	// ShareRoot is the mounted installer share. Falls back to share_root.
	ShareRoot string
	// BuildType selects the share subtree; NB when empty.
	BuildType string
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level.
	LogLevel string
	// Platform overrides the platform detected from the running OS.
	Platform string
}

type runner struct {
	cfg *config.Config

	runID      string
	platform   suite.Platform
	buildType  suite.BuildType
	release    suite.Release
	shareRoot  string
	installDir string
}

// Run installs the newest build found on the share unless it is already installed.
func Run(ctx context.Context, opts *Options) error {
	runID := uuid.NewString()

	ctx = logger.WithName(ctx, "share-installer")
	ctx = logger.WithKV(ctx, "run_id", runID)

	r, err := newRunner(opts, runID)
	if err != nil {
		logger.ErrorKV(ctx, "Invalid request", "error", err)
		return err
	}

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Share installer run failed", "error", err)
		return err
	}

	return nil
}

func newRunner(opts *Options, runID string) (*runner, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err = logger.SetLevelName(opts.LogLevel, cfg.LogLevel); err != nil {
		return nil, err
	}

	platform, err := suite.ParsePlatform(opts.Platform)
	if err != nil {
		return nil, err
	}

	if platform != suite.Windows {
		return nil, fmt.Errorf("share installs are only published for %s, not %s: %w",
			suite.Windows, platform, suite.ErrUnsupportedPlatform)
	}

	buildType := suite.NightlyBuild
	if opts.BuildType != "" {
		if buildType, err = suite.ParseBuildType(opts.BuildType); err != nil {
			return nil, err
		}
	}

	releaseName := firstNonEmpty(opts.Release, cfg.DefaultRelease)
	if releaseName == "" {
		return nil, errReleaseRequired
	}

	release, err := suite.ParseRelease(releaseName)
	if err != nil {
		return nil, err
	}

	shareRoot := firstNonEmpty(opts.ShareRoot, cfg.ShareRoot)
	if shareRoot == "" {
		return nil, errShareRequired
	}

	return &runner{
		cfg:        cfg,
		runID:      runID,
		platform:   platform,
		buildType:  buildType,
		release:    release,
		shareRoot:  shareRoot,
		installDir: installer.InstallDir(platform, release, cfg.InstallRoot),
	}, nil
}

func (r *runner) run(ctx context.Context) error {
	build, err := share.Latest(r.shareRoot, r.buildType, r.release, r.platform)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Newest build on share", "build", build.ID.Formatted(), "installer", build.Installer)

	var repo installrepo.Repository = installrepo.NewFileRepository(r.installDir)

	if repo.Exists() {
		marker, markerErr := repo.LocalVersion(ctx)

		switch {
		case markerErr != nil:
			logger.WarnKV(ctx, "Cannot read local version", "error", markerErr)
		case installrepo.IsCurrent(marker, build.ID):
			logger.InfoKV(ctx, "No update necessary", "install_dir", r.installDir, "version", strings.TrimSpace(marker))
			return nil
		}

		err = uninstall.Run(ctx, &uninstall.Params{
			Platform:   r.platform,
			Release:    r.release,
			InstallDir: r.installDir,
			Terminate:  r.cfg.TerminateProcesses,
		})
		if err != nil {
			return fmt.Errorf("uninstall: %w", err)
		}
	}

	if err = install.Run(ctx, r.command(build), filepath.Dir(build.Installer)); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	if err = repo.SaveRecord(ctx, r.record(ctx, build)); err != nil {
		logger.WarnKV(ctx, "Cannot save install record", "error", err)
	}

	logger.InfoKV(ctx, "Installation complete", "install_dir", r.installDir, "build", build.ID.Formatted())

	return nil
}

// command builds the share install invocation. The installer picks its
// default location unless an install root is configured.
func (r *runner) command(build share.Build) []string {
	cmd := []string{build.Installer, "/interactive_mode:off", "/install", "/knimeshortcut:no"}
	if r.cfg.InstallRoot != "" {
		cmd = append(cmd, "/installdir:'"+r.installDir+"'")
	}

	return cmd
}

func (r *runner) record(ctx context.Context, build share.Build) *installrepo.Record {
	rec := &installrepo.Record{
		Release:     r.release.String(),
		BuildType:   string(r.buildType),
		Build:       build.ID.String(),
		Platform:    string(r.platform),
		File:        filepath.Base(build.Installer),
		Source:      build.Dir,
		InstalledAt: time.Now().UTC(),
		RunID:       r.runID,
	}

	if actor, err := common.DetectActor(); err == nil {
		rec.Hostname = actor.Hostname
		rec.Username = actor.Username
	}

	return rec
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
