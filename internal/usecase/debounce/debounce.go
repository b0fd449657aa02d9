package debounce

import (
	"sync"
	"time"
)

// DefaultCooldown matches the page hook's original throttle.
const DefaultCooldown = 500 * time.Millisecond

// Debouncer drops attempts that arrive inside the cooldown window after
// the last allowed one. Dropped attempts are gone: they are not queued,
// not merged, and do not move the window.
//
// The mutex is there because mutation callbacks arrive on the browser
// client's event goroutine while the dry-run path may poke it from the
// main one.
type Debouncer struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     time.Time
}

func New(cooldown time.Duration) *Debouncer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Debouncer{cooldown: cooldown}
}

// Allow reports whether an attempt at the given instant may run. When it
// returns true the window is re-anchored at now; when false the stored
// timestamp is untouched.
func (d *Debouncer) Allow(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.last.IsZero() && now.Sub(d.last) < d.cooldown {
		return false
	}
	d.last = now
	return true
}

// Last returns the timestamp of the most recent allowed attempt, zero if
// none has run yet.
func (d *Debouncer) Last() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Cooldown returns the configured window.
func (d *Debouncer) Cooldown() time.Duration {
	return d.cooldown
}
