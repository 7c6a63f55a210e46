package extract

import (
	"context"
	"fmt"

	"github.com/oshokin/build-installer/internal/domain/suite"
	"github.com/oshokin/build-installer/internal/logger"
)

// Bundle unpacks the downloaded bundle into destination using the archive
// format published for platform: zip on Windows, tar on Linux and a dmg
// wrapping a pkg on macOS.
func Bundle(ctx context.Context, platform suite.Platform, bundlePath, destination string) error {
	logger.InfoKV(ctx, "Extracting bundle", "bundle", bundlePath, "destination", destination)

	var err error

	switch platform {
	case suite.Windows:
		err = Zip(bundlePath, destination)
	case suite.Linux:
		err = Tar(ctx, bundlePath, destination)
	case suite.MacOSX:
		return DMG(ctx, bundlePath, destination)
	default:
		return fmt.Errorf("%s: %w", platform, suite.ErrUnsupportedPlatform)
	}

	if err != nil {
		return err
	}

	// Zip and tar bundles wrap their content in a directory named after the bundle.
	return flatten(destination, bundleStem(bundlePath))
}
