package postgres

import (
	"context"

	"restaurant-pos/internal/repository"
)

func (s *Store) InsertAuditEntry(ctx context.Context, e repository.AuditEntry) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, before_state, after_state, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Before, e.After, e.At)
	return err
}
