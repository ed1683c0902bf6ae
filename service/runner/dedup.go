package runner

import (
	"sync"
	"time"

	"github.com/viant/warden/internal/clock"
)

// dedupCache remembers job ids that already ran. A zero or negative ttl
// remembers them forever.
type dedupCache struct {
	mux  sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newDedupCache(ttl time.Duration) *dedupCache {
	return &dedupCache{seen: make(map[string]time.Time), ttl: ttl}
}

// markSeen records the id and reports whether it was first seen now. The
// check and the mark are a single atomic step so concurrent duplicates
// cannot both pass.
func (d *dedupCache) markSeen(id string) bool {
	d.mux.Lock()
	defer d.mux.Unlock()

	now := clock.Now()
	if at, ok := d.seen[id]; ok {
		if d.ttl <= 0 || now.Sub(at) < d.ttl {
			return false
		}
	}
	d.seen[id] = now
	return true
}
