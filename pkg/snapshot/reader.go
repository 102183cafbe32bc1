package snapshot

import (
	"fmt"
	"os"

	"github.com/burrowmoo/burrow/pkg/db"
	"github.com/burrowmoo/burrow/pkg/dbio"
	"github.com/burrowmoo/burrow/pkg/dbv4"
	"github.com/burrowmoo/burrow/pkg/events"
	"github.com/burrowmoo/burrow/pkg/intern"
	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/metrics"
	"github.com/burrowmoo/burrow/pkg/values"
)

// Load reads the input snapshot into a fresh live store, validating and —
// for legacy inputs — migrating it. On success the store is reachable via
// Store; on failure the server must not start.
func (c *Context) Load() error {
	f, err := os.Open(c.cfg.InputName)
	if err != nil {
		return fmt.Errorf("cannot open input database file %s: %w", c.cfg.InputName, err)
	}
	defer f.Close()

	logger := log.WithComponent("load")
	logger.Info().Str("file", c.cfg.InputName).Msg("LOADING")

	c.pool = intern.NewPool()
	c.pool.Open(0)
	defer c.pool.Close()

	timer := metrics.NewTimer()

	var loadErr error
	frameErr := dbio.Frame(func() {
		loadErr = c.readSnapshot(dbio.NewReader(f))
	})
	if frameErr != nil {
		return fmt.Errorf("cannot load database: %w", frameErr)
	}
	if loadErr != nil {
		return fmt.Errorf("cannot load database: %w", loadErr)
	}

	timer.ObserveDuration(metrics.LoadDuration)
	logger.Info().
		Str("file", c.cfg.InputName).
		Str("dump", c.cfg.DumpName).
		Msg("LOADING done, will dump new database")
	c.publish(events.EventLoadCompleted, "snapshot loaded", map[string]string{
		"file": c.cfg.InputName,
	})
	return nil
}

func (c *Context) readSnapshot(r *dbio.Reader) error {
	logger := log.WithComponent("load")

	version := r.ReadHeader()
	if !version.Known() {
		return fmt.Errorf("unknown database format version %d", version)
	}
	c.inputVersion = version
	r.SetPool(c.pool)

	nobjs := r.ReadNum()
	nprogs := r.ReadNum()
	_ = r.ReadNum() // reserved field, read and discarded
	nusers := r.ReadNum()

	users := make([]values.Var, 0, nusers)
	for i := int64(0); i < nusers; i++ {
		users = append(users, values.NewObj(r.ReadObjid()))
	}

	store := db.NewStore()
	store.SetAllUsers(values.NewList(users))

	var legacy *dbv4.Table
	if version.Legacy() {
		legacy = dbv4.NewTable()
	}

	logger.Info().Int64("objects", nobjs).Msg("Reading objects")
	for i := int64(1); i <= nobjs; i++ {
		var err error
		if legacy != nil {
			err = readObjectV4(r, legacy)
		} else {
			err = readObjectNG(r, store)
		}
		if err != nil {
			return fmt.Errorf("bad object #%d: %w", i-1, err)
		}
		if i%10000 == 0 || i == nobjs {
			logger.Info().Int64("objects", i).Msg("Done reading objects")
		}
	}

	if legacy != nil {
		if err := legacy.Validate(); err != nil {
			return fmt.Errorf("errors in object hierarchies: %w", err)
		}
	} else {
		if err := ValidateStore(store); err != nil {
			return fmt.Errorf("errors in object hierarchies: %w", err)
		}
	}

	logger.Info().Int64("programs", nprogs).Msg("Reading verb programs")
	for i := int64(1); i <= nprogs; i++ {
		oid, vnum := r.ReadProgramLabel()

		var verb *db.Verbdef
		if legacy != nil {
			if !legacy.Valid(oid) {
				return fmt.Errorf("verb for non-existent object #%d:%d", oid, vnum)
			}
			verb = legacy.FindIndexedVerb(oid, int(vnum)+1) // snapshot is 0-based
		} else {
			if !store.Valid(oid) {
				return fmt.Errorf("verb for non-existent object #%d:%d", oid, vnum)
			}
			verb = store.FindIndexedVerb(oid, int(vnum)+1) // snapshot is 0-based
		}
		if verb == nil {
			return fmt.Errorf("unknown verb index #%d:%d", oid, vnum)
		}

		name := func() string { return fmt.Sprintf("#%d:%s", oid, verb.Name) }
		prog, err := c.cfg.Programs.ReadProgram(r, version, name)
		if err != nil {
			return fmt.Errorf("unparsable program #%d:%d: %w", oid, vnum, err)
		}
		verb.Program = prog

		if i%5000 == 0 || i == nprogs {
			logger.Info().Int64("programs", i).Msg("Done reading verb programs")
		}
	}

	logger.Info().Msg("Reading forked and suspended tasks")
	if c.cfg.TaskQueue != nil {
		c.cfg.TaskQueue.ReadBlock(r)
	}

	logger.Info().Msg("Reading list of formerly active connections")
	if c.cfg.Connections != nil {
		c.cfg.Connections.ReadBlock(r)
	}

	if legacy != nil {
		legacy.Upgrade(store)
	}

	c.store = store
	metrics.ObjectsLoaded.Set(float64(nobjs))
	metrics.ProgramsLoaded.Set(float64(nprogs))
	return nil
}
