package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/build-installer/internal/config"
	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
	installrepo "github.com/oshokin/build-installer/internal/repository/install"
	"github.com/oshokin/build-installer/internal/service/common"
	"github.com/oshokin/build-installer/internal/service/download"
	"github.com/oshokin/build-installer/internal/service/hosts"
	"github.com/oshokin/build-installer/internal/service/install"
	"github.com/oshokin/build-installer/internal/service/locator"
	"github.com/oshokin/build-installer/internal/service/uninstall"
)

// Options are inputs accepted by the bundle installer entry point.
type Options struct {
	// BundleType is academic, general, advanced or desres.
	BundleType string
	// BuildType is NB or OB.
	BuildType string
	// Release overrides the newest published release (YY-Q or YYYY-Q).
	Release string
	// Build pins a single build instead of the newest one carrying an installer.
	Build string
	// KNIME selects the KNIME flavour of macOS general and advanced bundles.
	KNIME bool
	// DownloadOnly stops after the bundle has been downloaded.
	DownloadOnly bool
	// DownloadDir receives the bundle.
	DownloadDir string
	// InstallDir is the parent of a custom installation directory.
	InstallDir string
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level.
	LogLevel string
	// Platform overrides the platform detected from the running OS.
	Platform string
}

// runner holds the state of a single installation run.
type runner struct {
	opts *Options
	cfg  *config.Config

	runID    string
	platform suite.Platform
	query    suite.Query

	// pages bounds page and hosts requests by the configured timeout.
	pages *http.Client
	// downloads has no timeout; bundles are large and bounded by the context only.
	downloads *http.Client
	locator   *locator.Locator

	downloadDir string
	installDir  string
	bundle      suite.Bundle
	bundlePath  string
}

// Run locates, downloads and installs the newest matching bundle.
func Run(ctx context.Context, opts *Options) error {
	runID := uuid.NewString()

	ctx = logger.WithName(ctx, "bundle-installer")
	ctx = logger.WithKV(ctx, "run_id", runID)

	r, err := newRunner(opts, runID)
	if err != nil {
		logger.ErrorKV(ctx, "Invalid request", "error", err)
		return err
	}

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installer run failed", "error", err)
		return err
	}

	return nil
}

// newRunner loads settings and validates the request before any network access.
func newRunner(opts *Options, runID string) (*runner, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err = logger.SetLevelName(opts.LogLevel, cfg.LogLevel); err != nil {
		return nil, err
	}

	r := &runner{
		opts:      opts,
		cfg:       cfg,
		runID:     runID,
		pages:     &http.Client{Timeout: cfg.Timeout},
		downloads: &http.Client{},
	}

	if err = r.buildQuery(); err != nil {
		return nil, err
	}

	r.downloadDir, err = ResolveDownloadDir(opts.DownloadDir, cfg.DownloadDir)
	if err != nil {
		return nil, err
	}

	r.locator, err = locator.New(cfg.BaseURL, r.pages)
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *runner) buildQuery() error {
	bundleType, err := suite.ParseBundleType(r.opts.BundleType)
	if err != nil {
		return err
	}

	buildType, err := suite.ParseBuildType(r.opts.BuildType)
	if err != nil {
		return err
	}

	platform, err := suite.ParsePlatform(r.opts.Platform)
	if err != nil {
		return err
	}

	if err = suite.ValidateRequest(bundleType, platform, r.opts.KNIME, r.opts.InstallDir != ""); err != nil {
		return err
	}

	var build suite.BuildID

	if r.opts.Build != "" {
		if build, err = suite.ParseBuildID(r.opts.Build); err != nil {
			return err
		}
	}

	r.platform = platform
	r.query = suite.Query{
		BuildType: buildType,
		Bundle:    bundleType,
		Platform:  platform,
		KNIME:     r.opts.KNIME,
		Build:     build,
	}

	return nil
}

// run executes the workflow:
// 1) Resolve the release.
// 2) Locate the bundle.
// 3) Compare with the local installation.
// 4) Download the bundle.
// 5) Replace the installation and install the hosts file.
func (r *runner) run(ctx context.Context) error {
	if err := r.resolveRelease(ctx); err != nil {
		return fmt.Errorf("resolve release: %w", err)
	}

	if err := r.locate(ctx); err != nil {
		return err
	}

	r.installDir = InstallDir(r.platform, r.query.Release, r.installParent())
	repo := installrepo.NewFileRepository(r.installDir)

	if r.isCurrent(ctx, repo) {
		logger.InfoKV(ctx, "No update necessary", "install_dir", r.installDir, "build", r.bundle.Build.Formatted())
		return nil
	}

	if err := r.download(ctx); err != nil {
		return err
	}

	if r.opts.DownloadOnly {
		logger.InfoKV(ctx, "Download only, skipping installation", "path", r.bundlePath)
		return nil
	}

	return r.install(ctx, repo)
}

func (r *runner) resolveRelease(ctx context.Context) error {
	value := r.opts.Release
	if value == "" {
		value = r.cfg.DefaultRelease
	}

	if value != "" {
		release, err := suite.ParseRelease(value)
		if err != nil {
			return err
		}

		r.query.Release = release

		return nil
	}

	release, err := r.locator.LatestRelease(ctx, r.query.BuildType)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Using newest published release", "release", release.String())
	r.query.Release = release

	return nil
}

func (r *runner) locate(ctx context.Context) error {
	logger.InfoKV(ctx, "Looking for installer",
		"release", r.query.Release.String(),
		"build_type", r.query.BuildType,
		"bundle", r.query.Bundle,
		"platform", r.platform,
		"knime", r.query.KNIME)

	bundle, err := r.locator.Locate(ctx, r.query)
	if err != nil {
		if errors.Is(err, locator.ErrNoInstaller) {
			return fmt.Errorf("no %s %s installer for %s in release %s: %w",
				r.query.Bundle, r.query.BuildType, r.platform, r.query.Release, err)
		}

		return fmt.Errorf("locate installer: %w", err)
	}

	logger.InfoKV(ctx, "Found installer", "build", bundle.Build.String(), "url", bundle.URL)
	r.bundle = bundle

	return nil
}

func (r *runner) installParent() string {
	if r.opts.InstallDir != "" {
		return r.opts.InstallDir
	}

	return r.cfg.InstallRoot
}

// isCurrent reports whether the existing installation already has the located build.
func (r *runner) isCurrent(ctx context.Context, repo installrepo.Repository) bool {
	if !repo.Exists() {
		logger.InfoKV(ctx, "No local installation found", "install_dir", r.installDir)
		return false
	}

	marker, err := repo.LocalVersion(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Cannot read local version", "error", err)
		return false
	}

	logger.InfoKV(ctx, "Local installation found", "version", strings.TrimSpace(marker))

	return installrepo.IsCurrent(marker, r.bundle.Build)
}

func (r *runner) download(ctx context.Context) error {
	r.bundlePath = filepath.Join(r.downloadDir, r.bundle.FileName)

	logger.InfoKV(ctx, "Downloading bundle", "url", r.bundle.URL, "path", r.bundlePath)

	started := time.Now()

	size, err := download.File(ctx, r.downloads, r.bundle.URL, r.bundlePath)
	if err != nil {
		return fmt.Errorf("download bundle: %w", err)
	}

	logger.InfoKV(ctx, "Downloaded bundle", "bytes", size, "elapsed", time.Since(started).Round(time.Millisecond))

	return nil
}

func (r *runner) install(ctx context.Context, repo installrepo.Repository) error {
	if repo.Exists() {
		err := uninstall.Run(ctx, &uninstall.Params{
			Platform:   r.platform,
			Release:    r.query.Release,
			InstallDir: r.installDir,
			AppsRoot:   r.cfg.ApplicationsDir,
			Terminate:  r.cfg.TerminateProcesses,
		})
		if err != nil {
			return fmt.Errorf("uninstall: %w", err)
		}
	}

	err := install.Bundle(ctx, &install.Params{
		Platform:   r.platform,
		Release:    r.query.Release,
		BundlePath: r.bundlePath,
		InstallDir: r.installDir,
		ScratchDir: r.cfg.ScratchDir,
		AppsRoot:   r.cfg.ApplicationsDir,
	})
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}

	if err = hosts.Install(ctx, r.pages, r.cfg.HostsURL, hosts.Form(r.bundle), r.installDir); err != nil {
		return fmt.Errorf("install hosts file: %w", err)
	}

	if err = repo.SaveRecord(ctx, r.record(ctx)); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Installation complete", "install_dir", r.installDir, "build", r.bundle.Build.Formatted())

	return nil
}

func (r *runner) record(ctx context.Context) *installrepo.Record {
	rec := &installrepo.Record{
		Release:     r.bundle.Release.String(),
		BuildType:   string(r.bundle.BuildType),
		Build:       r.bundle.Build.String(),
		Bundle:      string(r.bundle.Type),
		Platform:    string(r.platform),
		File:        r.bundle.FileName,
		Source:      r.bundle.URL,
		InstalledAt: time.Now().UTC(),
		RunID:       r.runID,
	}

	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Cannot detect actor", "error", err)
		return rec
	}

	rec.Hostname = actor.Hostname
	rec.Username = actor.Username

	return rec
}
