package fs

import (
	"sync"
	"time"

	"github.com/aretw0/mimir/pkg/core"
)

// debouncer coalesces bursts of events for the same entity. An atomic save
// produces several filesystem notifications; only the last one within the
// window is delivered.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]core.Event
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]core.Event),
		timers:  make(map[string]*time.Timer),
	}
}

func debounceKey(e core.Event) string {
	if e.Type == core.EventGroups {
		return string(core.EventGroups)
	}
	return e.ID.String()
}

// add schedules fire for e. A later event for the same key within the delay
// replaces e.
func (d *debouncer) add(e core.Event, fire func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	key := debounceKey(e)
	d.pending[key] = e
	if _, scheduled := d.timers[key]; scheduled {
		return
	}

	d.wg.Add(1)
	d.timers[key] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		latest := d.pending[key]
		delete(d.pending, key)
		delete(d.timers, key)
		d.mu.Unlock()
		fire(latest)
	})
}

// stop drops pending events and waits for callbacks already running. The
// callbacks must be able to return once their consumer is gone.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
