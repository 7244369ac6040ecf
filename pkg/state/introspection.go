package state

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/mimir/pkg/loader"
)

// Snapshot is the observable summary of a State.
type Snapshot struct {
	Mode          LoadMode      `json:"mode"`
	LoadedNotes   int           `json:"loaded_notes"`
	TotalNotes    int           `json:"total_notes"`
	PinnedNotes   int           `json:"pinned_notes"`
	Groups        int           `json:"groups"`
	ScratchpadLen int           `json:"scratchpad_length"`
	Loader        *loader.Stats `json:"loader,omitempty"`
}

// State implements introspection.Introspectable.
func (s *State) State() any {
	snap := Snapshot{
		Mode:          s.mode,
		LoadedNotes:   len(s.notes),
		TotalNotes:    s.TotalNotes(),
		Groups:        s.tree.Len(),
		ScratchpadLen: len(s.scratchpad),
	}
	for _, n := range s.notes {
		if n.Pinned {
			snap.PinnedNotes++
		}
	}
	if stats, ok := s.LoaderStats(); ok {
		snap.Loader = &stats
	}
	return snap
}

// ComponentType implements introspection.Component.
func (s *State) ComponentType() string {
	return "state"
}

var _ introspection.Introspectable = (*State)(nil)
var _ introspection.Component = (*State)(nil)
