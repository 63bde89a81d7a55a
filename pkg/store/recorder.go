package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/verdant-labs/greenledger/pkg/engine"
)

// Recorder subscribes to engine commits and persists them: every
// committed transition is appended to the audit chain and the full
// post-commit state replaces the stored snapshot. Persistence failures
// are logged, never surfaced into the transaction — the in-memory
// engine remains the source of truth and the next commit rewrites the
// snapshot.
type Recorder struct {
	log    *AuditLog
	sink   AuditSink
	snaps  Snapshotter
	logger *slog.Logger
}

// AuditSink persists audit entries durably. Entries arrive in chain
// order; the backend must reject a replayed sequence.
type AuditSink interface {
	Append(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context) ([]*AuditEntry, error)
}

// ResumeAuditLog rebuilds the in-memory chain position from the sink
// so appends continue the persisted chain instead of restarting it at
// genesis. The persisted tail is verified before resuming; a broken
// chain refuses to start rather than extend corrupt history.
func ResumeAuditLog(ctx context.Context, sink AuditSink) (*AuditLog, error) {
	entries, err := sink.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: resume audit log: %w", err)
	}
	if len(entries) == 0 {
		return NewAuditLog(), nil
	}
	if err := verifyEntries(entries); err != nil {
		return nil, fmt.Errorf("store: resume audit log: %w", err)
	}
	last := entries[len(entries)-1]
	return NewAuditLogFrom(last.Sequence, last.EntryHash), nil
}

// NewRecorder creates a recorder. sink and snaps may be nil, in which
// case the audit chain lives only in memory and no snapshot is kept.
func NewRecorder(log *AuditLog, sink AuditSink, snaps Snapshotter, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: log, sink: sink, snaps: snaps, logger: logger.With("component", "recorder")}
}

// Attach registers the recorder on the engine's commit hook.
func (r *Recorder) Attach(e *engine.Engine) {
	e.OnCommit(func(ev engine.Event, st engine.State) {
		entry, err := r.log.Append(string(ev.Kind), ev.Principal, ev.Payload)
		if err != nil {
			r.logger.Error("audit append failed", "kind", ev.Kind, "error", err)
			return
		}
		ctx := context.Background()
		if r.sink != nil {
			if err := r.sink.Append(ctx, entry); err != nil {
				r.logger.Error("audit persist failed", "sequence", entry.Sequence, "error", err)
			}
		}
		if r.snaps != nil {
			blob, err := json.Marshal(st)
			if err != nil {
				r.logger.Error("snapshot marshal failed", "error", err)
				return
			}
			if err := r.snaps.Save(ctx, blob); err != nil {
				r.logger.Error("snapshot save failed", "error", err)
			}
		}
	})
}

// Chain returns the in-memory audit log.
func (r *Recorder) Chain() *AuditLog {
	return r.log
}

// LoadEngine restores an engine from the stored snapshot, or creates a
// fresh one when no snapshot exists.
func LoadEngine(ctx context.Context, snaps Snapshotter, cfg engine.Config) (*engine.Engine, error) {
	blob, err := snaps.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			return engine.New(cfg)
		}
		return nil, err
	}
	var st engine.State
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	return engine.Restore(st, cfg)
}
