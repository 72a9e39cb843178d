package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/wixpack/internal/pipeline"
)

// GenerateCmd implements the 'generate' command, the core CI entry point.
type GenerateCmd struct {
	InputDir string `arg:"" name:"input-dir" help:"Payload directory to package"`
	Output   string `arg:"" optional:"" name:"output" help:"Manifest output path" default:"installer.wxs"`

	GuidMode       string `name:"guid-mode" help:"Component GUID mode (stable or fresh)" enum:",stable,fresh" default:""`
	ProductName    string `name:"product-name" help:"Override the configured product name"`
	ProductVersion string `name:"product-version" help:"Override the configured product version"`
}

func (g *GenerateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if err := withOverrides(cfg, g.GuidMode, g.ProductName, g.ProductVersion); err != nil {
		return err
	}

	result, err := pipeline.Run(context.Background(), pipeline.Request{
		SourceDir:  g.InputDir,
		OutputPath: g.Output,
		Config:     cfg,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Manifest written to %s (%d files, %d components)\n",
		result.OutputPath, result.Files, result.Components)
	return nil
}
