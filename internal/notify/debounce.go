package notify

import (
	"log"
	"sync"
	"time"
)

// PendingCreate is an in-memory record of a create notification held back for
// the debounce window. Never persisted; a process restart simply loses the
// window, not the underlying events.
type PendingCreate struct {
	SubscriberID uint
	Intent       Intent
	EnqueuedAt   time.Time

	pending bool
}

// Debouncer holds create notifications for subscribers so a batch of item
// uploads swallowed into a collection upload is not separately notified.
// Constructed once and injected into the pipeline; all operations serialize
// on an internal mutex because flush runs on the pipeline tick while enqueues
// arrive from batch processing.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	entries []PendingCreate
}

// NewDebouncer returns a debouncer holding entries for the given window.
// A zero window falls back to the default.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DebounceWindow
	}
	return &Debouncer{window: window}
}

// Enqueue holds one pending create notification per subscriber.
func (d *Debouncer) Enqueue(in Intent, subscriberIDs []uint, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sub := range subscriberIDs {
		d.entries = append(d.entries, PendingCreate{
			SubscriberID: sub,
			Intent:       in,
			EnqueuedAt:   now,
			pending:      true,
		})
	}
}

// CancelItems drops pending content-create entries whose created item is
// bundled into an arriving collection, before they can flush.
func (d *Debouncer) CancelItems(itemIDs []uint) {
	if len(itemIDs) == 0 {
		return
	}
	bundled := make(map[uint]bool, len(itemIDs))
	for _, id := range itemIDs {
		bundled[id] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	dropped := false
	for i := range d.entries {
		e := &d.entries[i]
		if !e.pending || e.Intent.Type != TypeCreateDigitalContent {
			continue
		}
		for _, a := range e.Intent.Actions {
			if a.EntityType == ActionDigitalContent && bundled[a.EntityID] {
				log.Printf("debounce: dropping pending create for item %d bundled into collection", a.EntityID)
				e.pending = false
				dropped = true
				break
			}
		}
	}
	if dropped {
		d.compactLocked()
	}
}

// Flush removes and returns every entry older than the window. Called
// opportunistically on pipeline ticks, so worst-case latency is bounded by
// the tick interval on top of the window itself.
func (d *Debouncer) Flush(now time.Time) []PendingCreate {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ready []PendingCreate
	for i := range d.entries {
		e := &d.entries[i]
		if e.pending && now.Sub(e.EnqueuedAt) > d.window {
			e.pending = false
			ready = append(ready, *e)
		}
	}
	if len(ready) > 0 {
		d.compactLocked()
	}
	return ready
}

// Len reports how many entries are still pending.
func (d *Debouncer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

func (d *Debouncer) compactLocked() {
	kept := d.entries[:0]
	for _, e := range d.entries {
		if e.pending {
			kept = append(kept, e)
		}
	}
	d.entries = kept
}
