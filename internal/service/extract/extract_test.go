package extract

import (
	"archive/tar"
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-installer/internal/domain/suite"
)

type entry struct {
	name string
	body string
	mode int64
	// link makes the entry a symbolic link, or a hard link when hard is set.
	link string
	hard bool
}

func writeTar(t *testing.T, w io.Writer, entries []entry) {
	t.Helper()

	tw := tar.NewWriter(w)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		switch {
		case e.link != "" && e.hard:
			hdr.Typeflag = tar.TypeLink
			hdr.Linkname = e.link
		case e.link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.link
		case e.body == "" && e.name[len(e.name)-1] == '/':
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}

		require.NoError(t, tw.WriteHeader(hdr))

		_, err := tw.Write([]byte(e.body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
}

func bundleEntries(stem string) []entry {
	return []entry{
		{name: stem + "/", mode: 0o755},
		{name: stem + "/INSTALL", body: "#!/bin/sh\nexit 0\n", mode: 0o755},
		{name: stem + "/mmshare-v5.4-Linux-x86_64.tar.gz", body: "payload", mode: 0o644},
	}
}

// TestBundle_LinuxTarFlattensWrapper unpacks a tar bundle and lifts its wrapper directory.
func TestBundle_LinuxTarFlattensWrapper(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stem := "Schrodinger_Suites_2021-3_Linux-x86_64"
	bundlePath := filepath.Join(dir, stem+".tar")

	f, err := os.Create(bundlePath)
	require.NoError(t, err)
	writeTar(t, f, bundleEntries(stem))
	require.NoError(t, f.Close())

	dest := filepath.Join(dir, "install_tmpdir")
	require.NoError(t, os.Mkdir(dest, 0o755))

	require.NoError(t, Bundle(context.Background(), suite.Linux, bundlePath, dest))

	info, err := os.Stat(filepath.Join(dest, "INSTALL"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dest, "mmshare-v5.4-Linux-x86_64.tar.gz"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest, stem))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestTar_Gzip detects gzip-compressed tarballs.
func TestTar_Gzip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.tar.gz")

	f, err := os.Create(archivePath)
	require.NoError(t, err)

	gz := gzip.NewWriter(f)
	writeTar(t, gz, []entry{{name: "a/b.txt", body: "hello", mode: 0o600}})
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	dest := t.TempDir()
	require.NoError(t, Tar(context.Background(), archivePath, dest))

	got, err := os.ReadFile(filepath.Join(dest, "a", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

// TestTar_RejectsEscapingEntries refuses entries pointing outside the destination.
func TestTar_RejectsEscapingEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.tar")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	writeTar(t, f, []entry{{name: "../outside.txt", body: "x", mode: 0o644}})
	require.NoError(t, f.Close())

	err = Tar(context.Background(), archivePath, filepath.Join(dir, "dest"))
	require.ErrorIs(t, err, ErrUnsafePath)

	_, err = os.Stat(filepath.Join(dir, "outside.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func writeTarFile(t *testing.T, path string, entries []entry) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	writeTar(t, f, entries)
	require.NoError(t, f.Close())
}

// TestTar_RejectsWritesThroughSymlinks refuses links pointing outside the
// destination and entries that would be written through a link.
func TestTar_RejectsWritesThroughSymlinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries func(outside string) []entry
	}{
		{
			name: "absolute link then entry below it",
			entries: func(outside string) []entry {
				return []entry{
					{name: "link", link: outside},
					{name: "link/evil.txt", body: "pwned", mode: 0o644},
				}
			},
		},
		{
			name: "relative link climbing out",
			entries: func(string) []entry {
				return []entry{
					{name: "dir/link", link: "../../outside"},
					{name: "dir/link/evil.txt", body: "pwned", mode: 0o644},
				}
			},
		},
		{
			name: "hard link to a file outside",
			entries: func(string) []entry {
				return []entry{{name: "evil.txt", link: "../outside/evil.txt", hard: true}}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			outside := filepath.Join(dir, "outside")
			require.NoError(t, os.Mkdir(outside, 0o755))

			archivePath := filepath.Join(dir, "evil.tar")
			writeTarFile(t, archivePath, tt.entries(outside))

			dest := filepath.Join(dir, "dest")
			require.NoError(t, os.Mkdir(dest, 0o755))

			err := Tar(context.Background(), archivePath, dest)
			require.ErrorIs(t, err, ErrUnsafePath)

			_, err = os.Stat(filepath.Join(outside, "evil.txt"))
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

// TestTar_Links keeps symbolic and hard links that stay inside the destination.
func TestTar_Links(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "links.tar")
	writeTarFile(t, archivePath, []entry{
		{name: "lib/libfoo.so.1", body: "elf", mode: 0o755},
		{name: "lib/libfoo.so", link: "libfoo.so.1"},
		{name: "bin/foo", link: "lib/libfoo.so.1", hard: true},
	})

	dest := t.TempDir()
	require.NoError(t, Tar(context.Background(), archivePath, dest))

	link, err := os.Readlink(filepath.Join(dest, "lib", "libfoo.so"))
	require.NoError(t, err)
	require.Equal(t, "libfoo.so.1", link)

	got, err := os.ReadFile(filepath.Join(dest, "bin", "foo"))
	require.NoError(t, err)
	require.Equal(t, "elf", string(got))

	original, err := os.Stat(filepath.Join(dest, "lib", "libfoo.so.1"))
	require.NoError(t, err)

	hard, err := os.Stat(filepath.Join(dest, "bin", "foo"))
	require.NoError(t, err)
	require.True(t, os.SameFile(original, hard))
}

// TestBundle_WindowsZip unpacks a zip bundle and lifts its wrapper directory.
func TestBundle_WindowsZip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stem := "Schrodinger_Suites_2021-3_Windows-x64"
	bundlePath := filepath.Join(dir, stem+".zip")

	f, err := os.Create(bundlePath)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create(stem + "/setup-silent.exe")
	require.NoError(t, err)
	_, err = w.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	dest := t.TempDir()
	require.NoError(t, Bundle(context.Background(), suite.Windows, bundlePath, dest))

	got, err := os.ReadFile(filepath.Join(dest, "setup-silent.exe"))
	require.NoError(t, err)
	require.Equal(t, "MZ", string(got))
}

// TestFlatten_ReplacesExistingAndSelfNamedEntries covers clashes with existing entries.
func TestFlatten_ReplacesExistingAndSelfNamedEntries(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "pkg", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "pkg", "pkg", "inner.txt"), []byte("new"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "pkg", "readme"), []byte("new"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "readme"), []byte("old"), 0o600))

	require.NoError(t, flatten(dest, "pkg"))

	got, err := os.ReadFile(filepath.Join(dest, "readme"))
	require.NoError(t, err)
	require.Equal(t, "new", string(got))

	_, err = os.Stat(filepath.Join(dest, "pkg", "inner.txt"))
	require.NoError(t, err)
}

// TestBundleStem strips known archive suffixes.
func TestBundleStem(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Suite_Linux", bundleStem("/tmp/Suite_Linux.tar"))
	require.Equal(t, "Suite_Linux", bundleStem("Suite_Linux.tar.gz"))
	require.Equal(t, "Suite_MacOSX", bundleStem("Suite_MacOSX.dmg"))
	require.Equal(t, "Suite_Windows-x64", bundleStem("Suite_Windows-x64.zip"))
}

// TestParseMountPoint reads the random mount point from hdiutil output.
func TestParseMountPoint(t *testing.T) {
	t.Parallel()

	out := "/dev/disk4          \tGUID_partition_scheme\n/dev/disk4s1        \tApple_HFS   \t/Volumes/dmg.Ab12Cd\n"

	mp, err := parseMountPoint(out)
	require.NoError(t, err)
	require.Equal(t, "/Volumes/dmg.Ab12Cd", mp)

	_, err = parseMountPoint("/dev/disk4\n")
	require.ErrorIs(t, err, ErrMountPoint)
}
