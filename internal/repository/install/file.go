package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/build-installer/internal/domain/suite"
)

const (
	// MarkerFilename is the version marker shipped inside every installation.
	MarkerFilename = "version.txt"

	// RecordFilename is written into the installation after a successful run.
	RecordFilename = "install-record.yaml"

	recordPermissions = 0o644
)

// ErrNotFound is returned when the marker or record file does not exist.
var ErrNotFound = errors.New("installation file not found")

// Repository defines access to the description of a local installation.
type Repository interface {
	Exists() bool
	LocalVersion(ctx context.Context) (string, error)
	SaveRecord(ctx context.Context, record *Record) error
	LoadRecord(ctx context.Context) (*Record, error)
}

// Record describes what a run installed.
type Record struct {
	Release     string    `yaml:"release"`
	BuildType   string    `yaml:"build_type"`
	Build       string    `yaml:"build"`
	Bundle      string    `yaml:"bundle,omitempty"`
	Platform    string    `yaml:"platform"`
	File        string    `yaml:"file"`
	Source      string    `yaml:"source"`
	InstalledAt time.Time `yaml:"installed_at"`
	Hostname    string    `yaml:"hostname,omitempty"`
	Username    string    `yaml:"username,omitempty"`
	RunID       string    `yaml:"run_id,omitempty"`
}

var _ Repository = (*FileRepository)(nil)

// FileRepository works on an installation directory.
type FileRepository struct {
	// dir is the installation directory.
	dir string
}

// NewFileRepository returns a repository rooted at the installation directory dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{
		dir: filepath.Clean(dir),
	}
}

// Exists reports whether the installation directory is present.
func (r *FileRepository) Exists() bool {
	info, err := os.Stat(r.dir)

	return err == nil && info.IsDir()
}

// LocalVersion returns the contents of the version marker.
func (r *FileRepository) LocalVersion(_ context.Context) (string, error) {
	contents, err := os.ReadFile(filepath.Join(r.dir, MarkerFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("read version marker: %w", err)
	}

	return string(contents), nil
}

// SaveRecord writes record as YAML into the installation directory.
func (r *FileRepository) SaveRecord(_ context.Context, record *Record) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode install record: %w", err)
	}

	if err = os.WriteFile(filepath.Join(r.dir, RecordFilename), data, recordPermissions); err != nil {
		return fmt.Errorf("write install record: %w", err)
	}

	return nil
}

// LoadRecord reads the record of the last successful run.
func (r *FileRepository) LoadRecord(_ context.Context) (*Record, error) {
	contents, err := os.ReadFile(filepath.Join(r.dir, RecordFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read install record: %w", err)
	}

	var record Record
	if err = yaml.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("decode install record: %w", err)
	}

	return &record, nil
}

// IsCurrent reports whether the version marker names build.
// The comparison is substring containment of the formatted build id.
func IsCurrent(marker string, build suite.BuildID) bool {
	if build.IsZero() {
		return false
	}

	return strings.Contains(marker, suite.FormatBuildID(build.String()))
}
