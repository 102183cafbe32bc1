package snapshot

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/burrowmoo/burrow/pkg/db"
	"github.com/burrowmoo/burrow/pkg/dbio"
	"github.com/burrowmoo/burrow/pkg/events"
	"github.com/burrowmoo/burrow/pkg/intern"
	"github.com/burrowmoo/burrow/pkg/ledger"
	"github.com/burrowmoo/burrow/pkg/program"
)

// TaskQueue is the collaborator that owns the forked-and-suspended-tasks
// block of a snapshot. The block is opaque to the persistence core.
type TaskQueue interface {
	ReadBlock(*dbio.Reader)
	WriteBlock(*dbio.Writer)
}

// ConnectionList is the collaborator that owns the formerly-active-
// connections block of a snapshot.
type ConnectionList interface {
	ReadBlock(*dbio.Reader)
	WriteBlock(*dbio.Writer)
}

// Config carries everything the persistence context needs from the server.
type Config struct {
	// InputName is the snapshot read at startup.
	InputName string
	// DumpName is the path every successful dump ends up at.
	DumpName string

	// Unforked makes checkpoints run synchronously in the caller instead
	// of handing the serialized image to a background writer.
	Unforked bool

	Programs    program.Codec
	TaskQueue   TaskQueue
	Connections ConnectionList

	Events *events.Broker
	Ledger *ledger.Ledger

	// ResetCommandHistory is invoked on the serving side of a checkpoint
	// once the image is sealed, mirroring the post-fork parent path.
	ResetCommandHistory func()

	// Sleep is the delay used by the shutdown retry loop. Tests may
	// replace it; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Context gathers the process-wide persistence state: input and dump file
// names, the dump generation counter, the declared input version, and the
// intern pool. It owns the dbio stream for the duration of a load or dump.
type Context struct {
	cfg Config

	store        *db.Store
	pool         *intern.Pool
	inputVersion dbio.Version
	generation   int

	writing atomic.Bool
	wg      sync.WaitGroup
}

// New creates a persistence context. The input file must exist.
func New(cfg Config) (*Context, error) {
	if cfg.InputName == "" || cfg.DumpName == "" {
		return nil, fmt.Errorf("usage: input-db-file output-db-file")
	}
	if _, err := os.Stat(cfg.InputName); err != nil {
		return nil, fmt.Errorf("cannot open input database file %s: %w", cfg.InputName, err)
	}
	if cfg.Programs == nil {
		cfg.Programs = program.TextCodec{}
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	return &Context{cfg: cfg}, nil
}

// Store returns the live object store. It is nil until Load succeeds.
func (c *Context) Store() *db.Store {
	return c.store
}

// InputVersion returns the declared version of the loaded snapshot.
func (c *Context) InputVersion() dbio.Version {
	return c.inputVersion
}

// Generation returns the current dump generation counter.
func (c *Context) Generation() int {
	return c.generation
}

// DiskSize returns the byte size of whichever file currently represents
// the latest authoritative image: the dump once a generation has
// succeeded, the input file before that. -1 means neither is available.
func (c *Context) DiskSize() int64 {
	if c.generation > 0 {
		if c.cfg.Ledger != nil {
			if size := c.cfg.Ledger.LastSize(); size >= 0 {
				return size
			}
		}
		if st, err := os.Stat(c.cfg.DumpName); err == nil {
			return st.Size()
		}
	}
	if st, err := os.Stat(c.cfg.InputName); err == nil {
		return st.Size()
	}
	return -1
}

func (c *Context) publish(t events.EventType, msg string, meta map[string]string) {
	if c.cfg.Events != nil {
		c.cfg.Events.Publish(&events.Event{Type: t, Message: msg, Metadata: meta})
	}
}
