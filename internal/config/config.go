package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the installer binaries.
type Config struct {
	// BaseURL is the root of the build-download web server.
	BaseURL string `yaml:"base_url"`
	// HostsURL generates a schrodinger.hosts file for a build.
	HostsURL string `yaml:"hosts_url"`
	// DownloadDir receives downloaded bundles. Empty means ~/Downloads.
	DownloadDir string `yaml:"download_dir,omitempty"`
	// InstallRoot overrides the platform default installation parent directory.
	InstallRoot string `yaml:"install_root,omitempty"`
	// ScratchDir is passed to the Linux installer as its scratch location.
	ScratchDir string `yaml:"scratch_dir"`
	// ApplicationsDir receives the macOS application bundles.
	ApplicationsDir string `yaml:"applications_dir"`
	// ShareRoot is the mounted installer share used by share-installer.
	ShareRoot string `yaml:"share_root,omitempty"`
	// DefaultRelease is used when no release is given on the command line.
	DefaultRelease string `yaml:"default_release,omitempty"`
	// Timeout bounds page requests. Downloads are bounded by the context only.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
	// TerminateProcesses names executables killed before an uninstall.
	TerminateProcesses []string `yaml:"terminate_processes,omitempty"`
}

const (
	// DefaultConfigFilename is looked up in the working directory.
	DefaultConfigFilename = "build-installer.yaml"

	// DefaultBaseURL is the internal build-download server.
	DefaultBaseURL = "http://build-download.schrodinger.com"

	// DefaultHostsURL generates hosts files on the build-download server.
	DefaultHostsURL = DefaultBaseURL + "/generatehosts/generate_hosts_file"

	// DefaultScratchDir is the scratch directory handed to the Linux installer.
	DefaultScratchDir = "/scr"

	// DefaultApplicationsDir is where macOS application bundles end up.
	DefaultApplicationsDir = "/Applications"

	// DefaultTimeout bounds page requests.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is used when writing configuration files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from path. A missing file at the default path
// yields the defaults; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && (!explicit || path == DefaultConfigFilename) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks URL fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if cfg.HostsURL == "" {
		cfg.HostsURL = DefaultHostsURL
	}

	if cfg.ScratchDir == "" {
		cfg.ScratchDir = DefaultScratchDir
	}

	if cfg.ApplicationsDir == "" {
		cfg.ApplicationsDir = DefaultApplicationsDir
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.HostsURL); err != nil {
		return fmt.Errorf("invalid hosts URL: %w", err)
	}

	return nil
}
