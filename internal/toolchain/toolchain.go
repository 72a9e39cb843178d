// Package toolchain drives the WiX command line tools (candle and light)
// to turn a generated manifest into an installer package.
package toolchain

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/wixpack/internal/errors"
	"git.home.luguber.info/inful/wixpack/internal/logfields"
)

// Toolchain locates and runs the WiX tools. Zero value is not usable;
// construct with New.
type Toolchain struct {
	candle string
	light  string
}

// Options override the tool binaries, typically from configuration.
// Empty fields fall back to PATH lookup of the conventional names.
type Options struct {
	Candle string
	Light  string
}

// New builds a Toolchain from opts.
func New(opts Options) *Toolchain {
	tc := &Toolchain{candle: opts.Candle, light: opts.Light}
	if tc.candle == "" {
		tc.candle = "candle"
	}
	if tc.light == "" {
		tc.light = "light"
	}
	return tc
}

// Compile runs candle on the manifest, producing a wixobj file.
func (t *Toolchain) Compile(ctx context.Context, wxsPath, wixobjPath string) error {
	return t.run(ctx, t.candle, "-nologo", "-out", wixobjPath, wxsPath)
}

// Link runs light on the compiled object, producing the MSI.
func (t *Toolchain) Link(ctx context.Context, wixobjPath, msiPath string) error {
	return t.run(ctx, t.light, "-nologo", "-out", msiPath, wixobjPath)
}

func (t *Toolchain) run(ctx context.Context, tool string, args ...string) error {
	bin, err := exec.LookPath(tool)
	if err != nil {
		return errors.Wrap(err, errors.CategoryToolchain, errors.SeverityFatal, "locate WiX tool").
			WithContext("tool", tool)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	slog.Debug("Running WiX tool", logfields.Tool(tool))

	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, errors.CategoryToolchain, errors.SeverityFatal, "WiX tool failed").
			WithContext("tool", tool).
			WithContext("output", output.String())
	}

	slog.Info("WiX tool finished",
		logfields.Tool(tool),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	return nil
}
