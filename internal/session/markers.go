package session

import "sync"

// Well-known markers.
const (
	MarkerRiskDisclosure = "risk_disclosure"
	MarkerWelcome        = "welcome"
)

// Markers remembers which one-time messages were shown during this process.
// Nothing is persisted. Safe for concurrent use.
type Markers struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMarkers creates an empty marker set.
func NewMarkers() *Markers {
	return &Markers{mu: sync.Mutex{}, seen: make(map[string]struct{})}
}

// ShowOnce reports true the first time it is called for key and false afterwards.
func (m *Markers) ShowOnce(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[key]; ok {
		return false
	}

	m.seen[key] = struct{}{}

	return true
}

// Seen reports whether key was marked.
func (m *Markers) Seen(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.seen[key]

	return ok
}

// Reset forgets every marker, e.g. after logout.
func (m *Markers) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen = make(map[string]struct{})
}
