package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wixpack/internal/config"
	"git.home.luguber.info/inful/wixpack/internal/errors"
)

func scenarioTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.exe"), []byte("exe"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib", "plugins"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "core.dll"), []byte("dll"), 0o644))
	return dir
}

func TestRunProducesManifest(t *testing.T) {
	src := scenarioTree(t)
	out := filepath.Join(t.TempDir(), "app.wxs")

	cfg := config.Default()
	cfg.Product.Version = "1.0.0.0"

	result, err := Run(context.Background(), Request{SourceDir: src, OutputPath: out, Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Directories)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 2, result.Components)
	assert.Len(t, result.Hash, 64)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ProductComponents")
}

func TestRunIsDeterministic(t *testing.T) {
	src := scenarioTree(t)
	outDir := t.TempDir()

	read := func(name string) []byte {
		cfg := config.Default()
		cfg.Product.Version = "1.0.0.0"
		out := filepath.Join(outDir, name)
		_, err := Run(context.Background(), Request{SourceDir: src, OutputPath: out, Config: cfg})
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, read("one.wxs"), read("two.wxs"))
}

func TestRunEmptyTreeLeavesNoOutput(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "app.wxs")

	cfg := config.Default()
	cfg.Product.Version = "1.0.0.0"

	_, err := Run(context.Background(), Request{SourceDir: src, OutputPath: out, Config: cfg})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryEmptyTree))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no partial output may be written")
}

func TestRunFailureKeepsPreviousManifest(t *testing.T) {
	src := scenarioTree(t)
	out := filepath.Join(t.TempDir(), "app.wxs")
	cfg := config.Default()
	cfg.Product.Version = "1.0.0.0"

	_, err := Run(context.Background(), Request{SourceDir: src, OutputPath: out, Config: cfg})
	require.NoError(t, err)
	before, err := os.ReadFile(out)
	require.NoError(t, err)

	// Empty the tree; the rerun fails and must not touch the old file.
	require.NoError(t, os.Remove(filepath.Join(src, "app.exe")))
	require.NoError(t, os.Remove(filepath.Join(src, "lib", "core.dll")))

	_, err = Run(context.Background(), Request{SourceDir: src, OutputPath: out, Config: cfg})
	require.Error(t, err)

	after, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunGuidCacheMakesFreshSticky(t *testing.T) {
	src := scenarioTree(t)
	tmp := t.TempDir()

	run := func(name string) []byte {
		cfg := config.Default()
		cfg.Product.Version = "1.0.0.0"
		cfg.Guid.Mode = "fresh"
		cfg.Guid.CachePath = filepath.Join(tmp, "guids.db")
		out := filepath.Join(tmp, name)
		_, err := Run(context.Background(), Request{SourceDir: src, OutputPath: out, Config: cfg})
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	// Fresh mode with a cache is still reproducible after the first run.
	assert.Equal(t, run("one.wxs"), run("two.wxs"))
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.Default()
	_, err := Run(ctx, Request{SourceDir: t.TempDir(), OutputPath: "x.wxs", Config: cfg})
	require.Error(t, err)
}
