// Package pipeline runs the manifest generation stages end to end:
// walk → allocate → build → serialize → write.
//
// The whole run is a pure function of (tree snapshot, configuration); the
// only side effect is the atomically written output file, which makes
// reruns safe in CI.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/wixpack/internal/config"
	"git.home.luguber.info/inful/wixpack/internal/errors"
	"git.home.luguber.info/inful/wixpack/internal/guidstore"
	"git.home.luguber.info/inful/wixpack/internal/ids"
	"git.home.luguber.info/inful/wixpack/internal/logfields"
	"git.home.luguber.info/inful/wixpack/internal/versioning"
	"git.home.luguber.info/inful/wixpack/internal/walker"
	"git.home.luguber.info/inful/wixpack/internal/wxs"
)

// Request names the inputs of one generation run.
type Request struct {
	SourceDir  string
	OutputPath string
	Config     *config.Config
}

// Result summarizes a completed run.
type Result struct {
	OutputPath  string
	Directories int
	Components  int
	Files       int
	Hash        string
	GuidMode    ids.GuidMode
	Duration    time.Duration
}

// Run generates the manifest for req. On any failure no output file is
// written; an existing file at the output path is left untouched.
func Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cfg := req.Config

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "generation canceled")
	}

	// Pin the version before building so reruns within one watch session
	// stay consistent.
	if cfg.Product.Version == "" || cfg.Product.Version == "git" {
		cfg.Product.Version = versioning.Resolve(req.SourceDir)
	}

	root, err := walker.Walk(req.SourceDir)
	if err != nil {
		return nil, err
	}

	guids := ids.NewGuidSource(cfg.GuidMode(), cfg.Product.UpgradeCode)
	if cfg.Guid.CachePath != "" {
		store, err := guidstore.Open(cfg.Guid.CachePath)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "open guid cache").
				WithContext("path", cfg.Guid.CachePath)
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close guid cache", logfields.Error(err))
			}
		}()
		guids = guids.WithStore(store)
	}

	doc, err := wxs.Build(root, ids.NewAllocator(), guids, cfg)
	if err != nil {
		return nil, err
	}

	data, err := wxs.Serialize(doc)
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(req.OutputPath, data); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	result := &Result{
		OutputPath:  req.OutputPath,
		Directories: doc.Directories,
		Components:  doc.Components,
		Files:       doc.Files,
		Hash:        hex.EncodeToString(sum[:]),
		GuidMode:    cfg.GuidMode(),
		Duration:    time.Since(start),
	}

	slog.Info("Manifest generated",
		logfields.Output(req.OutputPath),
		logfields.Files(result.Files),
		logfields.Dirs(result.Directories),
		logfields.Components(result.Components),
		logfields.GuidMode(string(result.GuidMode)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))

	return result, nil
}

// writeAtomic writes data via a temp file plus rename so a failed run never
// leaves a partial manifest behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "create output directory").
			WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".wixpack-*.wxs")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "create temp output file").
			WithContext("path", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "write manifest").
			WithContext("path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "close manifest").
			WithContext("path", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "chmod manifest").
			WithContext("path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "replace manifest").
			WithContext("path", path)
	}

	return nil
}
