package metrics

import "time"

// ResultLabel enumerates generation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// TriggerLabel names what caused a regeneration in watch mode.
type TriggerLabel string

const (
	TriggerFilesystem TriggerLabel = "filesystem"
	TriggerRescan     TriggerLabel = "rescan"
	TriggerStartup    TriggerLabel = "startup"
)

// Recorder defines observability hooks for manifest generation. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObserveGenerateDuration(d time.Duration)
	IncGenerateResult(result ResultLabel)
	IncWatchTrigger(trigger TriggerLabel)
	SetTreeSize(files, dirs, components int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveGenerateDuration(time.Duration) {}
func (NoopRecorder) IncGenerateResult(ResultLabel)         {}
func (NoopRecorder) IncWatchTrigger(TriggerLabel)          {}
func (NoopRecorder) SetTreeSize(int, int, int)             {}
