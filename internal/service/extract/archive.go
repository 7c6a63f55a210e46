package extract

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/oshokin/build-installer/internal/logger"
)

const (
	dirPermissions = 0o755
	// gzipMagic starts every gzip stream.
	gzipMagic = "\x1f\x8b"
)

// ErrUnsafePath is returned for archive entries that would land outside the destination.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// safeJoin joins name onto root and refuses results outside root.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, target) {
		return "", fmt.Errorf("%s: %w", name, ErrUnsafePath)
	}

	return target, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)

	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// checkNoSymlinks refuses target when it or any directory between root and
// target is a symbolic link, so earlier entries cannot redirect later writes.
func checkNoSymlinks(root, target string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return fmt.Errorf("%s: %w", target, ErrUnsafePath)
	}

	current := root

	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "." || part == "" {
			continue
		}

		current = filepath.Join(current, part)

		info, statErr := os.Lstat(current)
		if errors.Is(statErr, os.ErrNotExist) {
			return nil
		}

		if statErr != nil {
			return statErr
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%s is a symbolic link: %w", current, ErrUnsafePath)
		}
	}

	return nil
}

// entryTarget resolves an archive entry name to a path that is safe to write.
func entryTarget(root, name string) (string, error) {
	target, err := safeJoin(root, name)
	if err != nil {
		return "", err
	}

	if err = checkNoSymlinks(root, target); err != nil {
		return "", err
	}

	return target, nil
}

// Zip unpacks the zip archive at archivePath into destination.
func Zip(archivePath, destination string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, f := range reader.File {
		if err = writeZipEntry(f, destination); err != nil {
			return err
		}
	}

	return nil
}

func writeZipEntry(f *zip.File, destination string) error {
	target, err := entryTarget(destination, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, dirPermissions)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}

	defer func() {
		_ = src.Close()
	}()

	return writeRegular(target, src, f.Mode().Perm())
}

// Tar unpacks the tar archive at archivePath into destination.
// Gzip-compressed archives are detected by their magic bytes.
func Tar(ctx context.Context, archivePath, destination string) error {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("open tar: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	buffered := bufio.NewReader(file)

	var stream io.Reader = buffered

	magic, err := buffered.Peek(len(gzipMagic))
	if err == nil && bytes.Equal(magic, []byte(gzipMagic)) {
		gz, gzErr := gzip.NewReader(buffered)
		if gzErr != nil {
			return fmt.Errorf("open gzip stream: %w", gzErr)
		}

		defer func() {
			_ = gz.Close()
		}()

		stream = gz
	}

	return untar(ctx, tar.NewReader(stream), destination)
}

func untar(ctx context.Context, tr *tar.Reader, destination string) error {
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		target, err := entryTarget(destination, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, dirPermissions); err != nil {
				return err
			}
		case tar.TypeReg:
			if err = writeRegular(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err = writeSymlink(destination, target, hdr); err != nil {
				return err
			}
		case tar.TypeLink:
			if err = writeHardLink(destination, target, hdr); err != nil {
				return err
			}
		default:
			logger.Warnf(ctx, "Skipping tar entry %s of unsupported type %q", hdr.Name, hdr.Typeflag)
		}
	}
}

// writeSymlink creates a relative link that stays inside destination.
func writeSymlink(destination, target string, hdr *tar.Header) error {
	if filepath.IsAbs(hdr.Linkname) || strings.HasPrefix(hdr.Linkname, "/") {
		return fmt.Errorf("%s -> %s: %w", hdr.Name, hdr.Linkname, ErrUnsafePath)
	}

	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(hdr.Linkname))
	if !within(destination, resolved) {
		return fmt.Errorf("%s -> %s: %w", hdr.Name, hdr.Linkname, ErrUnsafePath)
	}

	if err := os.MkdirAll(filepath.Dir(target), dirPermissions); err != nil {
		return err
	}

	if err := removeExisting(target); err != nil {
		return err
	}

	if err := os.Symlink(hdr.Linkname, target); err != nil {
		return fmt.Errorf("symlink %s: %w", hdr.Name, err)
	}

	return nil
}

// writeHardLink links target to an entry extracted earlier; tar stores the
// link source relative to the archive root.
func writeHardLink(destination, target string, hdr *tar.Header) error {
	source, err := entryTarget(destination, hdr.Linkname)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(target), dirPermissions); err != nil {
		return err
	}

	if err = removeExisting(target); err != nil {
		return err
	}

	if err = os.Link(source, target); err != nil {
		return fmt.Errorf("link %s: %w", hdr.Name, err)
	}

	return nil
}

func removeExisting(target string) error {
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %s: %w", target, err)
	}

	return nil
}

// writeRegular creates target with mode and fills it from r.
func writeRegular(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), dirPermissions); err != nil {
		return err
	}

	if mode == 0 {
		mode = 0o644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err = io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}

	if err = out.Close(); err != nil {
		return err
	}

	// OpenFile applies the umask; installers rely on the archived mode.
	return os.Chmod(target, mode)
}

// bundleStem strips known archive suffixes from the bundle file name.
func bundleStem(bundlePath string) string {
	name := filepath.Base(bundlePath)

	for _, suffix := range []string{".tar.gz", ".tgz", ".tar", ".zip", ".dmg"} {
		if strings.HasSuffix(strings.ToLower(name), suffix) {
			return name[:len(name)-len(suffix)]
		}
	}

	return strings.TrimSuffix(name, filepath.Ext(name))
}

// flatten moves the entries of destination/wrapper up into destination,
// replacing existing entries, and removes the wrapper directory.
func flatten(destination, wrapper string) error {
	wrapperDir := filepath.Join(destination, wrapper)
	if _, err := os.Stat(wrapperDir); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	// The wrapper may contain an entry of its own name.
	staging := wrapperDir + ".flatten"
	if err := os.Rename(wrapperDir, staging); err != nil {
		return fmt.Errorf("stage extracted bundle: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(staging)
	}()

	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("read extracted bundle: %w", err)
	}

	for _, entry := range entries {
		src := filepath.Join(staging, entry.Name())
		dst := filepath.Join(destination, entry.Name())

		if err = os.RemoveAll(dst); err != nil {
			return fmt.Errorf("replace %s: %w", dst, err)
		}

		if err = os.Rename(src, dst); err != nil {
			return fmt.Errorf("move %s: %w", src, err)
		}
	}

	return nil
}
