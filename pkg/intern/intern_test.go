package intern

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/burrowmoo/burrow/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: "error", JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

func TestInternLifecycle(t *testing.T) {
	p := NewPool()

	// Closed pool passes strings through
	assert.Equal(t, "before", p.Intern("before"))
	hits, misses := p.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)

	p.Open(0)
	assert.Equal(t, "look", p.Intern("look"))
	assert.Equal(t, "look", p.Intern("look"))
	assert.Equal(t, "go", p.Intern("go"))
	hits, misses = p.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)

	p.Close()
	assert.Equal(t, "after", p.Intern("after"))

	// Close is idempotent
	p.Close()
}
