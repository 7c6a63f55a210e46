package uninstall

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
	"github.com/oshokin/build-installer/internal/service/common"
	"github.com/oshokin/build-installer/internal/service/install"
)

// WindowsUninstaller is the silent uninstaller left in a Windows installation.
const WindowsUninstaller = "uninstall-silent.exe"

// Params describe the installation to remove.
type Params struct {
	Platform   suite.Platform
	Release    suite.Release
	InstallDir string
	// AppsRoot holds the per-release applications directory on macOS.
	AppsRoot string
	// Terminate names executables killed before anything is removed.
	Terminate []string
}

// Run removes an installation. A failing Windows uninstaller is logged and
// the directory is removed regardless.
func Run(ctx context.Context, params *Params) error {
	logger.InfoKV(ctx, "Removing outdated installation", "install_dir", params.InstallDir)

	killed, err := common.TerminateProcesses(ctx, params.Terminate)
	if err != nil {
		return fmt.Errorf("terminate suite processes: %w", err)
	}

	if killed > 0 {
		logger.InfoKV(ctx, "Terminated running suite processes", "count", killed)
	}

	if params.Platform == suite.Windows {
		if err = runWindowsUninstaller(ctx, params.InstallDir); err != nil {
			logger.WarnKV(ctx, "Silent uninstaller failed", "error", err)
		}
	}

	if err = os.RemoveAll(params.InstallDir); err != nil {
		return fmt.Errorf("remove %s: %w", params.InstallDir, err)
	}

	if params.Platform == suite.MacOSX && params.AppsRoot != "" {
		appsDir := install.AppsDir(params.AppsRoot, params.Release)
		if err = os.RemoveAll(appsDir); err != nil {
			return fmt.Errorf("remove %s: %w", appsDir, err)
		}
	}

	return nil
}

// UninstallerPath returns where a Windows installation keeps its silent uninstaller.
func UninstallerPath(installDir string) string {
	return filepath.Join(installDir, "installer", WindowsUninstaller)
}

func runWindowsUninstaller(ctx context.Context, installDir string) error {
	uninstaller := UninstallerPath(installDir)
	if _, err := os.Stat(uninstaller); errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Silent uninstaller not found", "path", uninstaller)
		return nil
	}

	return install.Run(ctx, []string{uninstaller, "/interactive_mode:off"}, installDir)
}
