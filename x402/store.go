package x402

import (
	"sync"

	"github.com/protocolbanks/protocolbanks-go/types"
)

// entry pairs an authorization with its own mutex. All reads and
// mutations of a record go through withEntry, so concurrent operations on
// the same id serialize while operations on different ids proceed
// independently.
type entry struct {
	mu   sync.Mutex
	auth *types.X402Authorization
}

// store owns every authorization record for its lifetime. Status changes
// are the only permitted mutation after insert; eviction happens only
// through sweepExpired.
type store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func newStore() *store {
	return &store{entries: make(map[string]*entry)}
}

func (s *store) put(auth *types.X402Authorization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[auth.ID] = &entry{auth: auth}
}

// withEntry runs fn with the entry's lock held. Returns false when the id
// is unknown.
func (s *store) withEntry(id string, fn func(*types.X402Authorization) error) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return true, fn(e.auth)
}

// snapshot returns copies of every record matching the filter.
func (s *store) snapshot(filter func(*types.X402Authorization) bool) []*types.X402Authorization {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	var out []*types.X402Authorization
	for _, e := range entries {
		e.mu.Lock()
		if filter == nil || filter(e.auth) {
			cp := *e.auth
			out = append(out, &cp)
		}
		e.mu.Unlock()
	}
	return out
}

// sweepExpired marks still-pending expired records and evicts every
// record past its validity window. Returns the number evicted.
func (s *store) sweepExpired(isExpired func(*types.X402Authorization) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted int
	for id, e := range s.entries {
		e.mu.Lock()
		if isExpired(e.auth) {
			if e.auth.Status == types.X402StatusPending {
				e.auth.Status = types.X402StatusExpired
			}
			delete(s.entries, id)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}
