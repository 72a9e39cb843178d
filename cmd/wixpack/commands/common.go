package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/wixpack/internal/config"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"wixpack.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Generate a WiX manifest from a payload directory"`
	Build    BuildCmd    `cmd:"" help:"Generate the manifest and build the MSI with candle and light"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate the manifest whenever the payload tree changes"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration named on the command line. A missing
// file at the default path is not an error; the two-positional-argument CI
// contract must work without any config on disk.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

// withOverrides applies command-line overrides shared by generate, build
// and watch on top of the loaded configuration.
func withOverrides(cfg *config.Config, guidMode, productName, productVersion string) error {
	if guidMode != "" {
		cfg.Guid.Mode = guidMode
	}
	if productName != "" {
		cfg.Product.Name = productName
	}
	if productVersion != "" {
		cfg.Product.Version = productVersion
	}
	return cfg.Validate()
}
