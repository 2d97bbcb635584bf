// Package audit reports payments and status transitions to an append-only
// audit log. Best-effort: write failures are logged by callers and never
// suppress the primary operation.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"restaurant-pos/internal/repository"
)

type Entry struct {
	ActorID    int64
	Action     string
	EntityType string
	EntityID   int64
	Before     any
	After      any
}

type Sink interface {
	Record(ctx context.Context, e Entry) error
}

type Noop struct{}

func (Noop) Record(context.Context, Entry) error { return nil }

// StoreSink appends entries to the audit_log table outside the caller's
// transaction, so a slow or failing audit write cannot hold business locks.
type StoreSink struct {
	store repository.Audit
}

func NewStoreSink(store repository.Audit) *StoreSink { return &StoreSink{store: store} }

func (s *StoreSink) Record(ctx context.Context, e Entry) error {
	before, err := json.Marshal(e.Before)
	if err != nil {
		return err
	}
	after, err := json.Marshal(e.After)
	if err != nil {
		return err
	}
	return s.store.InsertAuditEntry(ctx, repository.AuditEntry{
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Before:     before,
		After:      after,
		At:         time.Now().UTC(),
	})
}
