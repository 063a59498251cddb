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

// Config holds the settings driving support package resolution.
type Config struct {
	// ManifestURL is the endpoint serving the support package manifest.
	ManifestURL string `yaml:"manifest_url"`
	// InstallRoot is the directory holding installed support packages,
	// one immediate subdirectory per installed artifact.
	InstallRoot string `yaml:"install_root"`
	// DownloadPath is the default destination for downloaded packages.
	DownloadPath string `yaml:"download_path"`
	// Timeout bounds the manifest fetch request.
	Timeout time.Duration `yaml:"timeout"`
	// Passive disables the installer invocation; install calls become no-ops.
	Passive bool `yaml:"passive"`
	// IgnoreInstalled forces re-resolution even when a package is already present.
	IgnoreInstalled bool `yaml:"ignore_installed"`
	// InstallerEnvironment marks the process as running inside an OS installer.
	// Resolution is skipped entirely when set.
	InstallerEnvironment bool `yaml:"installer_environment"`
	// RecoveryEnvironment marks the process as running inside recoveryOS.
	// Resolution is skipped entirely when set.
	RecoveryEnvironment bool `yaml:"recovery_environment"`
}

const (
	// DefaultConfigFilename is the default filename for resolver settings.
	DefaultConfigFilename = "metallib-helper-settings.yaml"

	// DefaultManifestURL is the published support package manifest endpoint.
	DefaultManifestURL = "https://dortania.github.io/MetallibSupportPkg/manifest.json"

	// DefaultInstallRoot is where the platform installer places support packages.
	DefaultInstallRoot = "/Library/Application Support/Dortania/MetallibSupportPkg"

	// DefaultDownloadFilename is the default artifact name inside the temp directory.
	DefaultDownloadFilename = "MetallibSupportPkg.pkg"

	// DefaultTimeout is the default duration for the manifest fetch.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInstallRootRequired is returned when the install root is missing.
	errInstallRootRequired = errors.New("install root must be provided")
)

// Default returns a configuration populated with production defaults.
func Default() *Config {
	return &Config{
		ManifestURL:  DefaultManifestURL,
		InstallRoot:  DefaultInstallRoot,
		DownloadPath: filepath.Join(os.TempDir(), DefaultDownloadFilename),
		Timeout:      DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads the settings file when it exists and falls back to
// production defaults when it does not.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return nil, err
}

// Save writes the configuration to the provided path.
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

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ManifestURL == "" {
		cfg.ManifestURL = DefaultManifestURL
	}

	if _, err := url.ParseRequestURI(cfg.ManifestURL); err != nil {
		return fmt.Errorf("invalid manifest URL: %w", err)
	}

	if cfg.InstallRoot == "" {
		return errInstallRootRequired
	}

	if cfg.DownloadPath == "" {
		cfg.DownloadPath = filepath.Join(os.TempDir(), DefaultDownloadFilename)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}
