package install

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-installer/internal/domain/suite"
)

// fakeInstallScript records its environment and writes a version marker into the -s target.
const fakeInstallScript = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -s) target="$2"; shift ;;
  esac
  shift
done
echo "installer output"
echo "$SCHRODINGER_INSTALL_UNSUPPORTED_PLATFORMS" > "$target/env.txt"
echo "Build 12" > "$target/version.txt"
`

func skipWithoutShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("installer scripts need a POSIX shell")
	}
}

// TestCommand_Windows builds the silent setup invocation.
func TestCommand_Windows(t *testing.T) {
	t.Parallel()

	cmd, err := Command(suite.Windows, "tmp", `C:\Program Files\Schrodinger2021-3`, "")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join("tmp", WindowsInstaller),
		"/interactive_mode:off",
		"/install",
		`/installdir:'C:\Program Files\Schrodinger2021-3'`,
		"/force",
	}, cmd)
}

// TestCommand_Linux appends every package archive found next to INSTALL.
func TestCommand_Linux(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"mmshare.tar.gz", "academic.tar.gz", "README"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	cmd, err := Command(suite.Linux, dir, "/scr/schrodinger2021-3", "/scr")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, LinuxInstaller),
		"-b",
		"-d", dir,
		"-t", "/scr/schrodinger2021-3/thirdparty",
		"-s", "/scr/schrodinger2021-3",
		"-k", "/scr",
		"--allow_deprecated",
		"academic.tar.gz",
		"mmshare.tar.gz",
	}, cmd)
}

// TestCommand_LinuxWithoutPackages fails when the bundle carries no package archives.
func TestCommand_LinuxWithoutPackages(t *testing.T) {
	t.Parallel()

	_, err := Command(suite.Linux, t.TempDir(), "/target", "/scr")
	require.ErrorIs(t, err, errNoLinuxPackage)
}

// TestCommand_Unsupported rejects platforms without a command-line installer.
func TestCommand_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := Command(suite.MacOSX, "a", "b", "c")
	require.ErrorIs(t, err, suite.ErrUnsupportedPlatform)
}

// TestRun_SetsEnvironmentAndDir runs the command in dir with the extra variable set.
func TestRun_SetsEnvironmentAndDir(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	dir := t.TempDir()
	err := Run(context.Background(), []string{
		"/bin/sh", "-c", `echo "$SCHRODINGER_INSTALL_UNSUPPORTED_PLATFORMS" > env.txt; echo oops >&2`,
	}, dir)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "env.txt"))
	require.NoError(t, err)
	require.Equal(t, "1", strings.TrimSpace(string(got)))
}

// TestRun_Failure reports a non-zero exit.
func TestRun_Failure(t *testing.T) {
	t.Parallel()
	skipWithoutShell(t)

	err := Run(context.Background(), []string{"/bin/sh", "-c", "exit 3"}, t.TempDir())
	require.Error(t, err)

	require.ErrorIs(t, Run(context.Background(), nil, ""), errEmptyCommand)
}

// TestBundle_Linux extracts a tar bundle and runs its INSTALL script.
//
// Not parallel: executing a freshly written script races with concurrent forks (ETXTBSY).
func TestBundle_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux bundles only install on linux")
	}

	dir := t.TempDir()
	stem := "Schrodinger_Suites_2021-3_Linux-x86_64"
	bundlePath := filepath.Join(dir, stem+".tar")
	writeBundle(t, bundlePath, stem)

	release, err := suite.ParseRelease("2021-3")
	require.NoError(t, err)

	installDir := filepath.Join(dir, "schrodinger2021-3")
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installDir, "stale.txt"), nil, 0o600))

	err = Bundle(context.Background(), &Params{
		Platform:   suite.Linux,
		Release:    release,
		BundlePath: bundlePath,
		InstallDir: installDir,
		ScratchDir: dir,
	})
	require.NoError(t, err)

	marker, err := os.ReadFile(filepath.Join(installDir, "version.txt"))
	require.NoError(t, err)
	require.Equal(t, "Build 12", strings.TrimSpace(string(marker)))

	env, err := os.ReadFile(filepath.Join(installDir, "env.txt"))
	require.NoError(t, err)
	require.Equal(t, "1", strings.TrimSpace(string(env)))

	_, err = os.Stat(filepath.Join(installDir, TempDirName))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(filepath.Join(installDir, "stale.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestMoveApps moves application bundles and leaves everything else in place.
func TestMoveApps(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	apps := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(target, "Maestro.app", "Contents"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(target, "utilities"), 0o755))

	require.NoError(t, moveApps(context.Background(), target, apps))

	_, err := os.Stat(filepath.Join(apps, "Maestro.app", "Contents"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(target, "utilities"))
	require.NoError(t, err)
}

// TestAppsDir names the per-release applications directory.
func TestAppsDir(t *testing.T) {
	t.Parallel()

	release, err := suite.ParseRelease("21-4")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/Applications", "SchrodingerSuites2021-4"), AppsDir("/Applications", release))
}

func writeBundle(t *testing.T, path, stem string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	tw := tar.NewWriter(f)
	files := []struct {
		name string
		body string
		mode int64
	}{
		{stem + "/" + LinuxInstaller, fakeInstallScript, 0o755},
		{stem + "/mmshare-v5.4-Linux-x86_64.tar.gz", "payload", 0o644},
	}

	for _, file := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     file.name,
			Mode:     file.mode,
			Size:     int64(len(file.body)),
			Typeflag: tar.TypeReg,
		}))

		_, err = tw.Write([]byte(file.body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())
}
