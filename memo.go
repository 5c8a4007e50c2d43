package formulas

import (
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// memo maps the arguments of earlier calls to Evaluate to their substituted
// text, so that repeating a call is answered from the cache without
// substituting or notifying the listener again.
type memo interface {
	recall(call string) (string, bool)
	remember(call, key string)
	close()
}

// newMemo creates a memo sized for c. A cache with a capacity gets a memo of
// the same capacity; otherwise the memo never forgets.
func newMemo(c Cache) memo {
	b, ok := c.(Bounded)
	if !ok || b.Capacity() <= 0 {
		return &mapMemo{m: make(map[string]string)}
	}
	n := b.Capacity()
	r, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters:        n * 10,
		MaxCost:            n,
		BufferItems:        64,
		IgnoreInternalCost: true,
		Metrics:            true,
	})
	if err != nil {
		// Only an invalid config fails, and n is positive. Without a memo,
		// every call substitutes.
		return boundedMemo{}
	}
	return boundedMemo{c: r}
}

type mapMemo struct {
	mu sync.Mutex
	m  map[string]string
}

func (m *mapMemo) recall(call string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.m[call]
	return key, ok
}

func (m *mapMemo) remember(call, key string) {
	m.mu.Lock()
	m.m[call] = key
	m.mu.Unlock()
}

func (m *mapMemo) close() {}

// boundedMemo is a memo which holds a limited number of calls. Forgetting a
// call costs only a substitution.
type boundedMemo struct {
	c *ristretto.Cache[string, string]
}

func (m boundedMemo) recall(call string) (string, bool) {
	if m.c == nil {
		return "", false
	}
	return m.c.Get(call)
}

func (m boundedMemo) remember(call, key string) {
	if m.c == nil {
		return
	}
	m.c.Set(call, key, 1)
}

func (m boundedMemo) close() {
	if m.c != nil {
		m.c.Close()
	}
}
