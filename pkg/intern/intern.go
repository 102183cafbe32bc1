package intern

import (
	"github.com/burrowmoo/burrow/pkg/log"
)

// Pool is a load-time string interner. It is opened before a snapshot load
// begins, installs every name read during the load, and is closed once the
// load completes. Interning after Close falls back to returning the input
// string unchanged.
type Pool struct {
	entries map[string]string
	hits    int
	misses  int
	open    bool
}

// NewPool creates a closed pool.
func NewPool() *Pool {
	return &Pool{}
}

// Open prepares the pool for interning. sizeHint may be zero.
func (p *Pool) Open(sizeHint int) {
	if sizeHint <= 0 {
		sizeHint = 1024
	}
	p.entries = make(map[string]string, sizeHint)
	p.hits = 0
	p.misses = 0
	p.open = true
}

// Intern returns the canonical copy of s, installing it on first sight.
func (p *Pool) Intern(s string) string {
	if !p.open {
		return s
	}
	if canon, ok := p.entries[s]; ok {
		p.hits++
		return canon
	}
	p.misses++
	p.entries[s] = s
	return s
}

// Close releases the table and logs hit statistics.
func (p *Pool) Close() {
	if !p.open {
		return
	}
	logger := log.WithComponent("intern")
	logger.Info().
		Int("strings", len(p.entries)).
		Int("hits", p.hits).
		Int("misses", p.misses).
		Msg("Closing interned string table")
	p.entries = nil
	p.open = false
}

// Stats returns the hit and miss counts accumulated since Open.
func (p *Pool) Stats() (hits, misses int) {
	return p.hits, p.misses
}
