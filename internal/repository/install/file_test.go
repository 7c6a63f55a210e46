package install

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/build-installer/internal/domain/suite"
)

// TestFileRepository_NotFound verifies missing files map to ErrNotFound.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "suites2021-3"))
	require.False(t, repo.Exists())

	_, err := repo.LocalVersion(context.Background())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.LoadRecord(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestFileRepository_LocalVersion reads the marker verbatim.
func TestFileRepository_LocalVersion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	marker := "Schrodinger Suite 2021-3\nBuild 12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFilename), []byte(marker), 0o600))

	repo := NewFileRepository(dir)
	require.True(t, repo.Exists())

	got, err := repo.LocalVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, marker, got)
}

// TestFileRepository_RecordRoundtrip ensures SaveRecord followed by LoadRecord returns the same record.
func TestFileRepository_RecordRoundtrip(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(t.TempDir())
	want := &Record{
		Release:     "2021-3",
		BuildType:   "NB",
		Build:       "build-012",
		Bundle:      "general",
		Platform:    "Linux",
		File:        "Schrodinger_Suites_2021-3_Linux-x86_64.tar",
		Source:      "http://builds.local/NB/2021-3/build-012/Schrodinger_Suites_2021-3_Linux-x86_64.tar",
		InstalledAt: time.Now().UTC().Truncate(time.Second),
		Hostname:    "qa-box",
		Username:    "qa",
		RunID:       "run",
	}

	require.NoError(t, repo.SaveRecord(context.Background(), want))

	got, err := repo.LoadRecord(context.Background())
	require.NoError(t, err)
	require.True(t, want.InstalledAt.Equal(got.InstalledAt))

	got.InstalledAt = want.InstalledAt
	require.Equal(t, want, got)
}

// TestIsCurrent holds exactly when the formatted build id is a substring of the marker.
func TestIsCurrent(t *testing.T) {
	t.Parallel()

	build, err := suite.ParseBuildID("build-012")
	require.NoError(t, err)

	require.True(t, IsCurrent("Schrodinger Suite 2021-3 Build 12", build))
	require.False(t, IsCurrent("Schrodinger Suite 2021-3 Build 11", build))
	require.False(t, IsCurrent("Schrodinger Suite 2021-3 Build 012", build))
	require.False(t, IsCurrent("", build))
	require.False(t, IsCurrent("Build 12", suite.BuildID{}))
}
