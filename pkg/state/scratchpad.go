package state

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aretw0/mimir/pkg/core"
)

func (s *State) loadScratchpad(ctx context.Context) {
	pad, ok := s.store.(core.Scratchpad)
	if !ok {
		return
	}
	text, err := pad.LoadScratchpad(ctx)
	if err != nil {
		s.logger.Warn("failed to load scratchpad", "op", "init", "entity", "scratchpad", "error", err)
		return
	}
	s.scratchpad = text
}

// Scratchpad returns the persistent free-form text.
func (s *State) Scratchpad() string {
	return s.scratchpad
}

// SetScratchpad replaces the persistent text.
func (s *State) SetScratchpad(ctx context.Context, text string) error {
	pad, ok := s.store.(core.Scratchpad)
	if !ok {
		return fmt.Errorf("scratchpad: %w", ErrUnsupported)
	}
	if err := pad.SaveScratchpad(ctx, text); err != nil {
		s.logger.Error("save failed", "op", "update", "entity", "scratchpad", "error", err)
		return fmt.Errorf("failed to save scratchpad: %w", err)
	}
	s.scratchpad = text
	return nil
}

// AppendNoteToScratchpad appends the content of a note to the persistent
// text.
func (s *State) AppendNoteToScratchpad(ctx context.Context, id uuid.UUID) error {
	n, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	return s.SetScratchpad(ctx, s.scratchpad+n.Content)
}
