package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wixpack/internal/config"
	"git.home.luguber.info/inful/wixpack/internal/metrics"
)

func watchFixture(t *testing.T) (*Watcher, string) {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.exe"), []byte("exe"), 0o755))
	out := filepath.Join(t.TempDir(), "app.wxs")

	cfg := config.Default()
	cfg.Product.Version = "1.0.0.0"

	w, err := New(src, out, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { w.watcher.Close() })
	return w, out
}

func TestIgnoredFiltersOwnOutput(t *testing.T) {
	w, out := watchFixture(t)

	assert.True(t, w.ignored(out))
	assert.True(t, w.ignored(filepath.Join(filepath.Dir(out), ".wixpack-123.wxs")))
	assert.False(t, w.ignored(filepath.Join(w.sourceDir, "app.exe")))
}

func TestTriggerCoalesces(t *testing.T) {
	w, _ := watchFixture(t)

	w.trigger(metrics.TriggerFilesystem)
	w.trigger(metrics.TriggerRescan)
	w.trigger(metrics.TriggerRescan)

	assert.Equal(t, metrics.TriggerFilesystem, <-w.triggerChan)
	select {
	case extra := <-w.triggerChan:
		t.Fatalf("expected pending triggers to coalesce, got %q", extra)
	default:
	}
}

func TestRegenerateWritesManifest(t *testing.T) {
	w, out := watchFixture(t)

	w.regenerate(context.Background(), metrics.TriggerStartup)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<Wix")
}

func TestRegenerateFailureLeavesNoOutput(t *testing.T) {
	src := t.TempDir() // empty payload tree
	out := filepath.Join(t.TempDir(), "app.wxs")
	cfg := config.Default()
	cfg.Product.Version = "1.0.0.0"

	w, err := New(src, out, cfg)
	require.NoError(t, err)
	defer w.watcher.Close()

	w.regenerate(context.Background(), metrics.TriggerStartup)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAddWatchesCoversSubdirectories(t *testing.T) {
	w, _ := watchFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(w.sourceDir, "lib", "plugins"), 0o755))

	require.NoError(t, w.addWatches())
	assert.Contains(t, w.watcher.WatchList(), filepath.Join(w.sourceDir, "lib"))
}
