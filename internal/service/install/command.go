package install

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
)

const (
	// WindowsInstaller is the silent installer shipped in Windows bundles.
	WindowsInstaller = "setup-silent.exe"

	// LinuxInstaller is the installer script shipped in Linux bundles.
	LinuxInstaller = "INSTALL"

	// unsupportedPlatformsEnv lets the Linux installer run on distributions it does not know.
	unsupportedPlatformsEnv = "SCHRODINGER_INSTALL_UNSUPPORTED_PLATFORMS=1"
)

var (
	errEmptyCommand   = errors.New("empty install command")
	errNoLinuxPackage = errors.New("no *.tar.gz packages next to the installer")
)

// Command builds the silent install command for platform. Paths are absolute
// so the command does not depend on the working directory of the caller.
func Command(platform suite.Platform, installerDir, targetDir, scratchDir string) ([]string, error) {
	switch platform {
	case suite.Windows:
		return []string{
			filepath.Join(installerDir, WindowsInstaller),
			"/interactive_mode:off",
			"/install",
			"/installdir:'" + targetDir + "'",
			"/force",
		}, nil
	case suite.Linux:
		packages, err := filepath.Glob(filepath.Join(installerDir, "*.tar.gz"))
		if err != nil {
			return nil, err
		}

		if len(packages) == 0 {
			return nil, fmt.Errorf("%s: %w", installerDir, errNoLinuxPackage)
		}

		sort.Strings(packages)

		cmd := []string{
			filepath.Join(installerDir, LinuxInstaller),
			"-b",
			"-d", installerDir,
			"-t", filepath.Join(targetDir, "thirdparty"),
			"-s", targetDir,
			"-k", scratchDir,
			"--allow_deprecated",
		}

		for _, pkg := range packages {
			cmd = append(cmd, filepath.Base(pkg))
		}

		return cmd, nil
	default:
		return nil, fmt.Errorf("%s: %w", platform, suite.ErrUnsupportedPlatform)
	}
}

// Run executes cmd in dir and streams its combined output to the log.
func Run(ctx context.Context, cmd []string, dir string) error {
	if len(cmd) == 0 {
		return errEmptyCommand
	}

	logger.InfoKV(ctx, "Running installer", "command", cmd, "dir", dir)

	process := exec.CommandContext(ctx, cmd[0], cmd[1:]...) //nolint:gosec // Installer paths come from the extracted bundle.
	process.Dir = dir
	process.Env = append(os.Environ(), unsupportedPlatformsEnv)

	reader, writer := io.Pipe()
	process.Stdout = writer
	process.Stderr = writer

	done := make(chan struct{})

	go func() {
		defer close(done)

		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			logger.Info(ctx, scanner.Text())
		}

		// Keep draining so the installer never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, reader)
	}()

	err := process.Run()

	_ = writer.Close()
	<-done

	if err != nil {
		return fmt.Errorf("run %s: %w", filepath.Base(cmd[0]), err)
	}

	return nil
}
