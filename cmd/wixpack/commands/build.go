package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/wixpack/internal/logfields"
	"git.home.luguber.info/inful/wixpack/internal/pipeline"
	"git.home.luguber.info/inful/wixpack/internal/toolchain"
)

// BuildCmd implements the 'build' command: generate, compile, link.
type BuildCmd struct {
	InputDir string `arg:"" name:"input-dir" help:"Payload directory to package"`
	Output   string `arg:"" optional:"" name:"output" help:"MSI output path" default:"installer.msi"`

	GuidMode       string `name:"guid-mode" help:"Component GUID mode (stable or fresh)" enum:",stable,fresh" default:""`
	ProductName    string `name:"product-name" help:"Override the configured product name"`
	ProductVersion string `name:"product-version" help:"Override the configured product version"`
	KeepManifest   bool   `name:"keep-manifest" help:"Keep the intermediate .wxs and .wixobj files"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if err := withOverrides(cfg, b.GuidMode, b.ProductName, b.ProductVersion); err != nil {
		return err
	}

	base := strings.TrimSuffix(b.Output, filepath.Ext(b.Output))
	wxsPath := base + ".wxs"
	wixobjPath := base + ".wixobj"

	ctx := context.Background()
	result, err := pipeline.Run(ctx, pipeline.Request{
		SourceDir:  b.InputDir,
		OutputPath: wxsPath,
		Config:     cfg,
	})
	if err != nil {
		return err
	}

	tc := toolchain.New(toolchain.Options{
		Candle: cfg.Toolchain.Candle,
		Light:  cfg.Toolchain.Light,
	})
	if err := tc.Compile(ctx, wxsPath, wixobjPath); err != nil {
		return err
	}
	if err := tc.Link(ctx, wixobjPath, b.Output); err != nil {
		return err
	}

	if !b.KeepManifest {
		removeIntermediates(wxsPath, wixobjPath)
	}

	fmt.Printf("Installer written to %s (%d files, %d components)\n",
		b.Output, result.Files, result.Components)
	return nil
}

func removeIntermediates(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			slog.Debug("Could not remove intermediate file",
				logfields.Path(p), logfields.Error(err))
		}
	}
}
