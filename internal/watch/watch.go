// Package watch regenerates the manifest whenever the payload tree changes.
// Filesystem events are debounced, and a periodic rescan catches anything
// the event stream missed (network mounts, editors with odd rename dances).
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/wixpack/internal/config"
	"git.home.luguber.info/inful/wixpack/internal/logfields"
	"git.home.luguber.info/inful/wixpack/internal/metrics"
	"git.home.luguber.info/inful/wixpack/internal/notify"
	"git.home.luguber.info/inful/wixpack/internal/pipeline"
)

// Watcher drives continuous regeneration of one manifest.
type Watcher struct {
	sourceDir  string
	outputPath string
	cfg        *config.Config

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
	recorder  metrics.Recorder
	publisher *notify.Publisher

	triggerChan chan metrics.TriggerLabel
	debounce    time.Duration
}

// New creates a watcher for sourceDir writing to outputPath.
func New(sourceDir, outputPath string, cfg *config.Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("resolve output path: %w", err)
	}

	return &Watcher{
		sourceDir:   absSource,
		outputPath:  absOutput,
		cfg:         cfg,
		watcher:     fsw,
		scheduler:   scheduler,
		recorder:    metrics.NoopRecorder{},
		triggerChan: make(chan metrics.TriggerLabel, 1),
		debounce:    cfg.Watch.Debounce,
	}, nil
}

// Run watches until ctx is canceled. The first generation happens
// immediately so the output exists before any change arrives.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if addr := w.cfg.Watch.MetricsAddr; addr != "" {
		reg := prom.NewRegistry()
		w.recorder = metrics.NewPrometheusRecorder(reg)
		go w.serveMetrics(ctx, addr, reg)
	}

	if url := w.cfg.Notify.URL; url != "" {
		pub, err := notify.NewPublisher(url, w.cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Notifications disabled", logfields.Error(err))
		} else {
			w.publisher = pub
			defer pub.Close()
		}
	}

	if err := w.addWatches(); err != nil {
		return err
	}

	if _, err := w.scheduler.NewJob(
		gocron.DurationJob(w.cfg.Watch.RescanInterval),
		gocron.NewTask(w.rescan),
		gocron.WithName("rescan"),
	); err != nil {
		return fmt.Errorf("schedule rescan job: %w", err)
	}
	w.scheduler.Start()
	defer func() {
		if err := w.scheduler.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}()

	slog.Info("Watching for changes",
		logfields.Path(w.sourceDir),
		logfields.Output(w.outputPath))

	w.regenerate(ctx, metrics.TriggerStartup)

	go w.eventLoop(ctx)

	return w.debounceLoop(ctx)
}

// addWatches registers the source tree with fsnotify. New subdirectories
// are picked up from create events and from periodic rescans.
func (w *Watcher) addWatches() error {
	return filepath.WalkDir(w.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// A created directory must be watched before anything
				// inside it changes.
				_ = w.watcher.Add(event.Name)
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
				event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				w.trigger(metrics.TriggerFilesystem)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// ignored filters out the manifest itself and our temp files so a write
// never retriggers the run that produced it.
func (w *Watcher) ignored(name string) bool {
	if name == w.outputPath {
		return true
	}
	return strings.HasPrefix(filepath.Base(name), ".wixpack-")
}

func (w *Watcher) trigger(t metrics.TriggerLabel) {
	select {
	case w.triggerChan <- t:
	default:
		// A regeneration is already pending.
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) error {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case t := <-w.triggerChan:
			if timer != nil {
				timer.Stop()
			}
			trigger := t
			timer = time.AfterFunc(w.debounce, func() {
				w.regenerate(ctx, trigger)
			})
		}
	}
}

// rescan runs on the gocron schedule. It re-adds watches so directories
// created while an ancestor was unwatched are not missed, then forces a
// regeneration pass.
func (w *Watcher) rescan() {
	if err := w.addWatches(); err != nil {
		slog.Warn("Rescan could not refresh watches", logfields.Error(err))
	}
	w.trigger(metrics.TriggerRescan)
}

func (w *Watcher) regenerate(ctx context.Context, trigger metrics.TriggerLabel) {
	w.recorder.IncWatchTrigger(trigger)

	result, err := pipeline.Run(ctx, pipeline.Request{
		SourceDir:  w.sourceDir,
		OutputPath: w.outputPath,
		Config:     w.cfg,
	})
	if err != nil {
		w.recorder.IncGenerateResult(metrics.ResultFailed)
		slog.Error("Regeneration failed", logfields.Error(err))
		return
	}

	w.recorder.IncGenerateResult(metrics.ResultSuccess)
	w.recorder.ObserveGenerateDuration(result.Duration)
	w.recorder.SetTreeSize(result.Files, result.Directories, result.Components)

	if w.publisher != nil {
		event := notify.EventFromResult(w.cfg.Product.Name, w.cfg.Product.Version, result)
		if err := w.publisher.Publish(event); err != nil {
			slog.Warn("Failed to publish generation event", logfields.Error(err))
		}
	}
}

func (w *Watcher) serveMetrics(ctx context.Context, addr string, reg *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics endpoint listening", slog.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Metrics endpoint failed", logfields.Error(err))
	}
}
