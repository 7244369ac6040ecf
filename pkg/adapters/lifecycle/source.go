// Package lifecycle adapts the store's change notifications to the
// lifecycle event model. Note changes and group collection changes arrive
// as distinct event types so handlers can dispatch on them.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/mimir/pkg/core"
)

// NoteChanged reports that a single note file was created, modified or
// removed.
type NoteChanged struct {
	core.Event
}

// GroupsChanged reports that the group collection was rewritten. Group
// events already queued behind it are folded into the newest one.
type GroupsChanged struct {
	core.Event
}

// Option configures a Source.
type Option func(*noteSource)

// WithTypes forwards only events of the given types. No types means all.
func WithTypes(types ...core.EventType) Option {
	return func(s *noteSource) {
		s.types = types
	}
}

type noteSource struct {
	events <-chan core.Event
	types  []core.EventType
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source emitting NoteChanged and
// GroupsChanged events read from events.
func NewSource(events <-chan core.Event, opts ...Option) lifecycle.Source {
	s := &noteSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *noteSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *noteSource) wants(t core.EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Start forwards events until ctx is done or the input channel closes, then
// closes Events.
func (s *noteSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		var held *core.Event
		closed := false
		for {
			var e core.Event
			switch {
			case held != nil:
				e, held = *held, nil
			case closed:
				return nil
			default:
				select {
				case <-ctx.Done():
					return nil
				case next, ok := <-s.events:
					if !ok {
						return nil
					}
					e = next
				}
			}
			if !s.wants(e.Type) {
				continue
			}

			var out lifecycle.Event = NoteChanged{e}
			if e.Type == core.EventGroups {
				e, held, closed = s.latestGroups(e)
				out = GroupsChanged{e}
			}
			select {
			case s.out <- out:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}

// latestGroups drains group events already queued behind e and returns the
// newest. The first other event met is returned as held so it is forwarded
// next; closed reports that the input ended while draining.
func (s *noteSource) latestGroups(e core.Event) (latest core.Event, held *core.Event, closed bool) {
	for {
		select {
		case next, ok := <-s.events:
			if !ok {
				return e, nil, true
			}
			if next.Type != core.EventGroups {
				return e, &next, false
			}
			e = next
		default:
			return e, nil, false
		}
	}
}
