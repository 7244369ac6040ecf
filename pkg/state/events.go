package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/mimir/pkg/core"
)

// ApplyEvent reconciles memory with a change made to the store by another
// process. A note that vanished before it could be read is treated as
// deleted.
func (s *State) ApplyEvent(ctx context.Context, e core.Event) error {
	log := s.logger.With("op", "reconcile", "entity", "note", "id", e.ID, "event", e.Type)

	switch e.Type {
	case core.EventGroups:
		if err := s.reloadGroups(ctx); err != nil {
			log.Error("failed to reload groups", "error", err)
			return err
		}
		log.Debug("groups reloaded", "count", s.tree.Len())

	case core.EventCreate, core.EventModify:
		n, err := s.store.Get(ctx, e.ID)
		if errors.Is(err, core.ErrNotFound) {
			s.forget(ctx, e)
			return nil
		}
		if err != nil {
			log.Error("failed to read changed note", "error", err)
			return err
		}
		_, known := s.Note(n.ID)
		s.commit(n)
		if !known {
			s.reindex(ctx)
		}
		log.Debug("note refreshed")

	case core.EventDelete:
		s.forget(ctx, e)

	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func (s *State) forget(ctx context.Context, e core.Event) {
	if s.drop(e.ID) || s.loader != nil {
		s.reindex(ctx)
	}
	s.logger.Debug("note forgotten", "op", "reconcile", "entity", "note", "id", e.ID)
}
