package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
	"github.com/oshokin/build-installer/internal/service/extract"
)

const (
	// TempDirName is the extraction directory created inside the installation.
	TempDirName = "install_tmpdir"

	dirPermissions = 0o755
)

// Params describe a single installation.
type Params struct {
	Platform   suite.Platform
	Release    suite.Release
	BundlePath string
	InstallDir string
	// ScratchDir is handed to the Linux installer.
	ScratchDir string
	// AppsRoot receives the per-release applications directory on macOS.
	AppsRoot string
}

// Bundle installs the downloaded bundle into a fresh installation directory.
func Bundle(ctx context.Context, params *Params) error {
	tempDir := filepath.Join(params.InstallDir, TempDirName)

	logger.InfoKV(ctx, "Preparing installation directory", "install_dir", params.InstallDir)

	if err := recreateDir(params.InstallDir); err != nil {
		return err
	}

	if err := recreateDir(tempDir); err != nil {
		return err
	}

	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.WarnKV(ctx, "Failed to remove temporary directory", "dir", tempDir, "error", err)
		}
	}()

	if err := extract.Bundle(ctx, params.Platform, params.BundlePath, tempDir); err != nil {
		return fmt.Errorf("extract bundle: %w", err)
	}

	if params.Platform == suite.MacOSX {
		return Darwin(ctx, params.Release, tempDir, params.InstallDir, params.AppsRoot)
	}

	cmd, err := Command(params.Platform, tempDir, params.InstallDir, params.ScratchDir)
	if err != nil {
		return err
	}

	return Run(ctx, cmd, tempDir)
}

// recreateDir removes dir with everything inside and creates it empty.
func recreateDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	return nil
}
