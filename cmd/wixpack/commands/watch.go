package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/wixpack/internal/watch"
)

// WatchCmd implements the 'watch' command for local iteration.
type WatchCmd struct {
	InputDir string `arg:"" name:"input-dir" help:"Payload directory to package"`
	Output   string `arg:"" optional:"" name:"output" help:"Manifest output path" default:"installer.wxs"`

	GuidMode       string `name:"guid-mode" help:"Component GUID mode (stable or fresh)" enum:",stable,fresh" default:""`
	ProductName    string `name:"product-name" help:"Override the configured product name"`
	ProductVersion string `name:"product-version" help:"Override the configured product version"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if err := withOverrides(cfg, w.GuidMode, w.ProductName, w.ProductVersion); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher, err := watch.New(w.InputDir, w.Output, cfg)
	if err != nil {
		return err
	}

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
