// Package notify publishes generation-completed events over NATS so CI
// dashboards and downstream packagers can react to fresh manifests.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/wixpack/internal/logfields"
	"git.home.luguber.info/inful/wixpack/internal/pipeline"
)

// GenerationEvent is the wire form of one completed manifest run.
type GenerationEvent struct {
	Product     string    `json:"product"`
	Version     string    `json:"version"`
	OutputPath  string    `json:"output_path"`
	Hash        string    `json:"hash"`
	Directories int       `json:"directories"`
	Components  int       `json:"components"`
	Files       int       `json:"files"`
	GuidMode    string    `json:"guid_mode"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventFromResult maps a pipeline result to its published form.
func EventFromResult(product, version string, result *pipeline.Result) *GenerationEvent {
	return &GenerationEvent{
		Product:     product,
		Version:     version,
		OutputPath:  result.OutputPath,
		Hash:        result.Hash,
		Directories: result.Directories,
		Components:  result.Components,
		Files:       result.Files,
		GuidMode:    string(result.GuidMode),
		DurationMS:  result.Duration.Milliseconds(),
	}
}

// Publisher sends generation events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("wixpack"),
		nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("Notification publisher connected", logfields.Subject(subject))

	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish sends one event. Failures are reported but must never fail the
// generation run itself; callers log and continue.
func (p *Publisher) Publish(event *GenerationEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.Debug("Published generation event",
		logfields.Subject(p.subject),
		logfields.Hash(event.Hash))

	return nil
}

// Close flushes pending messages and drops the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	_ = p.conn.Flush()
	p.conn.Close()
}
