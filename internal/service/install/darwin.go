package install

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
)

// AppsDir returns the directory holding the application bundles of release.
func AppsDir(appsRoot string, release suite.Release) string {
	return filepath.Join(appsRoot, "SchrodingerSuites"+release.String())
}

// Darwin unpacks every expanded pkg in installerDir into targetDir and moves
// the application bundles into a fresh per-release applications directory.
func Darwin(ctx context.Context, release suite.Release, installerDir, targetDir, appsRoot string) error {
	appsDir := AppsDir(appsRoot, release)
	if err := recreateDir(appsDir); err != nil {
		return err
	}

	packages, err := filepath.Glob(filepath.Join(installerDir, "*.pkg"))
	if err != nil {
		return err
	}

	for _, pkg := range packages {
		if err = unpackPayload(ctx, filepath.Join(pkg, "Payload"), targetDir); err != nil {
			return err
		}
	}

	return moveApps(ctx, targetDir, appsDir)
}

// unpackPayload feeds the gzip-compressed cpio payload into cpio running in targetDir.
func unpackPayload(ctx context.Context, payload, targetDir string) error {
	logger.InfoKV(ctx, "Unpacking payload", "payload", payload)

	file, err := os.Open(filepath.Clean(payload))
	if err != nil {
		return fmt.Errorf("open payload: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("read payload %s: %w", payload, err)
	}

	defer func() {
		_ = gz.Close()
	}()

	cpio := exec.CommandContext(ctx, "cpio", "-i")
	cpio.Dir = targetDir
	cpio.Stdin = gz

	if out, err := cpio.CombinedOutput(); err != nil {
		return fmt.Errorf("cpio %s: %w: %s", payload, err, out)
	}

	return nil
}

// moveApps moves every *.app entry of targetDir into appsDir.
func moveApps(ctx context.Context, targetDir, appsDir string) error {
	apps, err := filepath.Glob(filepath.Join(targetDir, "*.app"))
	if err != nil {
		return err
	}

	for _, app := range apps {
		dst := filepath.Join(appsDir, filepath.Base(app))
		logger.DebugKV(ctx, "Moving application", "from", app, "to", dst)

		if err = os.Rename(app, dst); err != nil {
			return fmt.Errorf("move %s: %w", app, err)
		}
	}

	return nil
}
