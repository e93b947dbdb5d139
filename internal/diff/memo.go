package diff

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memoizer caches the diff of the most recently requested version pair,
// keyed explicitly by (baseVersionID, compareVersionID). Switching pairs
// discards the prior result and recomputes; concurrent requests for the same
// pair share one computation via singleflight.
type Memoizer struct {
	group singleflight.Group

	mu     sync.Mutex
	key    string
	result *Result
}

// NewMemoizer creates an empty memoizer.
func NewMemoizer() *Memoizer {
	return &Memoizer{}
}

func pairKey(baseID, compareID string) string {
	return baseID + "\x00" + compareID
}

// Get returns the memoized result for the pair, computing it when the
// currently cached pair differs.
func (m *Memoizer) Get(baseID, compareID string, compute func() (*Result, error)) (*Result, error) {
	key := pairKey(baseID, compareID)

	m.mu.Lock()
	if m.key == key && m.result != nil {
		res := m.result
		m.mu.Unlock()
		return res, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		res, err := compute()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.key = key
		m.result = res
		m.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Invalidate drops the cached result, for callers that know a version was
// re-profiled.
func (m *Memoizer) Invalidate() {
	m.mu.Lock()
	m.key = ""
	m.result = nil
	m.mu.Unlock()
}
