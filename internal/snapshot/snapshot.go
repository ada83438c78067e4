// Package snapshot exports and restores the full monitoring state as one
// JSON document: event log, drift history, review queue, model activations,
// the last fairness analysis and the active configuration.
//
// The document is the unit of atomicity. Export reads each store once;
// restore replaces each store wholesale. Concurrent writers during a restore
// see either the old state or the new one per store, not a blend within any
// single store.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/drift"
	"neurowatch/internal/eventlog"
	"neurowatch/internal/fairness"
	"neurowatch/internal/modelversion"
	"neurowatch/internal/platform/config"
	"neurowatch/pkg/requestcontext"
)

// Document is the on-disk shape. Key names are part of the format; existing
// snapshots must keep loading.
type Document struct {
	PerformanceHistory    []eventlog.PredictionEvent `json:"performance_history"`
	DriftHistory          []drift.Summary            `json:"drift_detection_history"`
	ActiveLearningQueries []activelearning.Query     `json:"active_learning_queries"`
	ModelVersions         []modelversion.Record      `json:"model_versions"`
	FairnessMetrics       *fairness.Report           `json:"fairness_metrics,omitempty"`
	Config                config.Monitoring          `json:"config"`
}

// EventLog is the slice of the event store the snapshot needs.
type EventLog interface {
	All(ctx context.Context) ([]eventlog.PredictionEvent, error)
	Replace(ctx context.Context, events []eventlog.PredictionEvent) error
}

// DriftHistory is the slice of the drift store the snapshot needs.
type DriftHistory interface {
	All(ctx context.Context) ([]drift.Summary, error)
	Replace(ctx context.Context, summaries []drift.Summary) error
}

// Queue is the slice of the review queue store the snapshot needs.
type Queue interface {
	All(ctx context.Context) ([]activelearning.Query, error)
	Replace(ctx context.Context, queries []activelearning.Query) error
}

// Versions is the slice of the activation store the snapshot needs.
type Versions interface {
	All(ctx context.Context) ([]modelversion.Record, error)
	Replace(ctx context.Context, records []modelversion.Record) error
}

// FairnessCache holds the most recent fairness analysis, which is derived
// state but expensive enough to be worth snapshotting.
type FairnessCache interface {
	Last() *fairness.Report
	SetLast(report *fairness.Report)
}

// Manager wires the stores into Document export/restore.
type Manager struct {
	events   EventLog
	history  DriftHistory
	queue    Queue
	versions Versions
	fairness FairnessCache
	cfg      config.Monitoring
	log      *slog.Logger
}

func NewManager(
	events EventLog,
	history DriftHistory,
	queue Queue,
	versions Versions,
	fairnessCache FairnessCache,
	cfg config.Monitoring,
	log *slog.Logger,
) *Manager {
	return &Manager{
		events:   events,
		history:  history,
		queue:    queue,
		versions: versions,
		fairness: fairnessCache,
		cfg:      cfg,
		log:      log,
	}
}

// Export collects the current state into a Document.
func (m *Manager) Export(ctx context.Context) (*Document, error) {
	events, err := m.events.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export event log: %w", err)
	}
	history, err := m.history.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export drift history: %w", err)
	}
	queries, err := m.queue.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export review queue: %w", err)
	}
	versions, err := m.versions.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export model versions: %w", err)
	}

	doc := &Document{
		PerformanceHistory:    events,
		DriftHistory:          history,
		ActiveLearningQueries: queries,
		ModelVersions:         versions,
		Config:                m.cfg,
	}
	if m.fairness != nil {
		doc.FairnessMetrics = m.fairness.Last()
	}
	return doc, nil
}

// Restore replaces the state of every store from the document. The embedded
// config is informational only; the running configuration is not swapped
// under live traffic.
func (m *Manager) Restore(ctx context.Context, doc *Document) error {
	if err := m.events.Replace(ctx, doc.PerformanceHistory); err != nil {
		return fmt.Errorf("restore event log: %w", err)
	}
	if err := m.history.Replace(ctx, doc.DriftHistory); err != nil {
		return fmt.Errorf("restore drift history: %w", err)
	}
	if err := m.queue.Replace(ctx, doc.ActiveLearningQueries); err != nil {
		return fmt.Errorf("restore review queue: %w", err)
	}
	if err := m.versions.Replace(ctx, doc.ModelVersions); err != nil {
		return fmt.Errorf("restore model versions: %w", err)
	}
	if m.fairness != nil {
		m.fairness.SetLast(doc.FairnessMetrics)
	}

	m.log.InfoContext(ctx, "monitoring state restored",
		"request_id", requestcontext.RequestID(ctx),
		"events", len(doc.PerformanceHistory),
		"drift_entries", len(doc.DriftHistory),
		"pending_queries", len(doc.ActiveLearningQueries),
		"model_versions", len(doc.ModelVersions),
	)
	return nil
}

// Save exports the current state and writes it as an indented JSON document.
func (m *Manager) Save(ctx context.Context, w io.Writer) error {
	doc, err := m.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Load decodes one document from r and restores it.
func (m *Manager) Load(ctx context.Context, r io.Reader) error {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return m.Restore(ctx, &doc)
}

// SaveFile writes the exported document to path. The write goes through a
// temp file and rename so a crash never leaves a half-written snapshot.
func (m *Manager) SaveFile(ctx context.Context, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if err := m.Save(ctx, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize snapshot: %w", err)
	}
	return nil
}

// LoadFile restores state from a snapshot file.
func (m *Manager) LoadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	defer f.Close()
	return m.Load(ctx, f)
}
