package extract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/oshokin/build-installer/internal/logger"
)

// mountPointPattern matches the random mount point hdiutil reports.
var mountPointPattern = regexp.MustCompile(`/Volumes/dmg\.[0-9A-Za-z_]+`)

// ErrMountPoint is returned when hdiutil output names no mount point.
var ErrMountPoint = errors.New("could not parse mount point")

// DMG mounts the disk image, expands the pkg named after the image into
// destination with xar and detaches the image again.
func DMG(ctx context.Context, dmgPath, destination string) error {
	mountPoint, err := attach(ctx, dmgPath)
	if err != nil {
		return err
	}

	defer func() {
		detach := exec.CommandContext(context.WithoutCancel(ctx), "hdiutil", "detach", "-force", mountPoint)
		if out, detachErr := detach.CombinedOutput(); detachErr != nil {
			logger.WarnKV(ctx, "Failed to detach disk image", "mount_point", mountPoint,
				"error", detachErr, "output", string(out))
		}
	}()

	pkgPath := filepath.Join(mountPoint, bundleStem(dmgPath)+".pkg")
	logger.InfoKV(ctx, "Expanding package", "package", pkgPath)

	xar := exec.CommandContext(ctx, "xar", "-C", destination, "-xvf", pkgPath)
	if out, err := xar.CombinedOutput(); err != nil {
		return fmt.Errorf("xar %s: %w: %s", pkgPath, err, out)
	}

	return nil
}

func attach(ctx context.Context, dmgPath string) (string, error) {
	cmd := exec.CommandContext(ctx, "hdiutil", "attach", "-mountrandom", "/Volumes", "-nobrowse", dmgPath)

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("hdiutil attach %s: %w", dmgPath, err)
	}

	logger.Debug(ctx, string(out))

	return parseMountPoint(string(out))
}

// parseMountPoint extracts the mount point from hdiutil attach output.
func parseMountPoint(output string) (string, error) {
	mountPoint := mountPointPattern.FindString(output)
	if mountPoint == "" {
		return "", fmt.Errorf("%w in output:\n%s", ErrMountPoint, output)
	}

	return mountPoint, nil
}
