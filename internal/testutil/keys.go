package testutil

import "sync"

// FixedKeyGenerator returns predetermined session correlation keys.
//
// With one key it returns that key forever, which models several sessions
// sharing a correlation key. With several keys it returns them in order and
// then repeats the last one.
//
// Thread-safety: FixedKeyGenerator is safe for concurrent use via internal mutex.
type FixedKeyGenerator struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixedKeyGenerator creates a generator over keys.
// If no keys are given, Generate() returns "test-session-default".
func NewFixedKeyGenerator(keys ...string) *FixedKeyGenerator {
	if len(keys) == 0 {
		keys = []string{"test-session-default"}
	}
	return &FixedKeyGenerator{keys: keys}
}

// Generate returns the next key.
func (g *FixedKeyGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := g.keys[g.idx]
	if g.idx < len(g.keys)-1 {
		g.idx++
	}
	return k
}
