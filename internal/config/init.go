package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/wixpack/internal/errors"
)

// Init writes a starter configuration file to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath))
	}

	example := Config{
		Product: ProductConfig{
			ID:           "*",
			Name:         "MyApp",
			Version:      "1.0.0.0",
			Manufacturer: "Example Corp",
			UpgradeCode:  "B0A7DDE2-6F14-4A5C-9E41-8C53AFA0D2B7",
			Executable:   "bin/MyApp.exe",
		},
		Guid: GuidConfig{
			Mode: "stable",
		},
		Output: OutputConfig{
			Path: "myapp.wxs",
		},
		Shortcut: &ShortcutConfig{
			Name:        "MyApp",
			Description: "Launch MyApp",
		},
		Associations: []Association{
			{Extensions: []string{"png", "jpg", "jpeg"}, ContentType: "image/png"},
		},
		Toolchain: ToolchainConfig{
			Candle: "candle",
			Light:  "light",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "marshal example config")
	}

	header := "# wixpack configuration\n# Replace product.upgrade_code with your own fixed GUID before shipping:\n# component GUID stability is derived from it.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "write config file")
	}

	return nil
}
