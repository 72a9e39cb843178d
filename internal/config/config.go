// Package config loads and validates the wixpack configuration.
//
// Configuration is an explicit value threaded through the pipeline; nothing
// in this package installs global state.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/wixpack/internal/errors"
	"git.home.luguber.info/inful/wixpack/internal/ids"
)

// Config represents the application configuration
type Config struct {
	Product      ProductConfig   `yaml:"product"`
	Guid         GuidConfig      `yaml:"guid"`
	Output       OutputConfig    `yaml:"output"`
	Shortcut     *ShortcutConfig `yaml:"shortcut,omitempty"`
	Associations []Association   `yaml:"associations,omitempty"`
	Icon         *IconConfig     `yaml:"icon,omitempty"`
	Toolchain    ToolchainConfig `yaml:"toolchain"`
	Watch        WatchConfig     `yaml:"watch"`
	Notify       NotifyConfig    `yaml:"notify"`
}

// ProductConfig carries the product metadata stamped into the manifest root.
type ProductConfig struct {
	// ID is the MSI product code; "*" lets the compiler mint one per build.
	ID           string `yaml:"id,omitempty"`
	Name         string `yaml:"name"`
	Version      string `yaml:"version,omitempty"` // empty or "git" resolves from the source tree's repository
	Manufacturer string `yaml:"manufacturer,omitempty"`
	UpgradeCode  string `yaml:"upgrade_code,omitempty"`
	Language     string `yaml:"language,omitempty"`
	// Executable is the relative path of the main binary inside the tree;
	// shortcuts and file associations attach to its component.
	Executable string `yaml:"executable,omitempty"`
}

// GuidConfig selects the component GUID derivation policy.
type GuidConfig struct {
	Mode      string `yaml:"mode,omitempty"` // stable (default) or fresh
	CachePath string `yaml:"cache_path,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ShortcutConfig describes the Start Menu shortcut for the main executable.
type ShortcutConfig struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Association registers file extensions against the main executable.
type Association struct {
	Extensions  []string `yaml:"extensions"`
	ContentType string   `yaml:"content_type"`
}

// IconConfig references the Add/Remove Programs icon source file.
type IconConfig struct {
	Source string `yaml:"source"`
}

// ToolchainConfig names the external WiX compiler and linker binaries.
type ToolchainConfig struct {
	Candle string `yaml:"candle,omitempty"`
	Light  string `yaml:"light,omitempty"`
}

// WatchConfig tunes continuous regeneration.
type WatchConfig struct {
	Debounce       time.Duration `yaml:"debounce,omitempty"`
	RescanInterval time.Duration `yaml:"rescan_interval,omitempty"`
	MetricsAddr    string        `yaml:"metrics_addr,omitempty"`
}

// NotifyConfig enables generation-completed events over NATS. Disabled when
// URL is empty.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Default returns a configuration usable without a config file, so the
// two-positional-argument CI contract works out of the box.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "failed to unmarshal config")
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Product.ID == "" {
		c.Product.ID = "*"
	}
	if c.Product.Name == "" {
		c.Product.Name = "Application"
	}
	if c.Product.Manufacturer == "" {
		c.Product.Manufacturer = "Unknown"
	}
	if c.Product.Language == "" {
		c.Product.Language = "1033"
	}
	if c.Product.UpgradeCode == "" {
		// A stable upgrade code is required for MSI major upgrades; derive
		// one from the product identity rather than minting per run.
		seed := strings.ToLower(c.Product.Manufacturer + "/" + c.Product.Name)
		c.Product.UpgradeCode = strings.ToUpper(uuid.NewSHA1(uuid.NameSpaceDNS, []byte(seed)).String())
	}
	if c.Guid.Mode == "" {
		c.Guid.Mode = string(ids.GuidModeStable)
	}
	if c.Toolchain.Candle == "" {
		c.Toolchain.Candle = "candle"
	}
	if c.Toolchain.Light == "" {
		c.Toolchain.Light = "light"
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 2 * time.Second
	}
	if c.Watch.RescanInterval <= 0 {
		c.Watch.RescanInterval = 5 * time.Minute
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "wixpack.generate"
	}
}

// Validate checks invariants that would otherwise surface as broken
// manifests much later.
func (c *Config) Validate() error {
	if _, err := ids.ParseGuidMode(c.Guid.Mode); err != nil {
		return errors.ConfigError(err.Error())
	}

	if c.Product.ID != "*" {
		if _, err := uuid.Parse(c.Product.ID); err != nil {
			return errors.ConfigError(fmt.Sprintf("product.id must be a GUID or \"*\", got %q", c.Product.ID))
		}
	}

	if _, err := uuid.Parse(c.Product.UpgradeCode); err != nil {
		return errors.ConfigError(fmt.Sprintf("product.upgrade_code must be a GUID, got %q", c.Product.UpgradeCode))
	}

	if c.Shortcut != nil && c.Product.Executable == "" {
		return errors.ConfigError("shortcut requires product.executable to be set")
	}

	if len(c.Associations) > 0 && c.Product.Executable == "" {
		return errors.ConfigError("associations require product.executable to be set")
	}

	for i, assoc := range c.Associations {
		if len(assoc.Extensions) == 0 {
			return errors.ConfigError(fmt.Sprintf("associations[%d] has no extensions", i))
		}
		if assoc.ContentType == "" {
			return errors.ConfigError(fmt.Sprintf("associations[%d] has no content_type", i))
		}
	}

	if c.Icon != nil && c.Icon.Source == "" {
		return errors.ConfigError("icon.source is required when icon is set")
	}

	return nil
}

// GuidMode returns the parsed GUID mode. Validate must have passed.
func (c *Config) GuidMode() ids.GuidMode {
	mode, err := ids.ParseGuidMode(c.Guid.Mode)
	if err != nil {
		return ids.GuidModeStable
	}
	return mode
}
