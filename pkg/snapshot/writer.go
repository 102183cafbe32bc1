package snapshot

import (
	"github.com/burrowmoo/burrow/pkg/dbio"
	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/values"
)

// writeSnapshot serializes the whole live store onto w under a codec
// failure frame. The record order is fixed and byte-reproducible: header,
// counts, users, objects 0..max_oid with recycled slots included, verb
// programs in (oid, verb-ordinal) order, then the task-queue and
// active-connections blocks.
func (c *Context) writeSnapshot(w *dbio.Writer, reason string) error {
	return dbio.Frame(func() {
		logger := log.WithComponent("checkpoint").With().Str("reason", reason).Logger()
		store := c.store
		maxOid := store.MaxObjid()

		nprogs := 0
		for oid := values.Objid(0); oid <= maxOid; oid++ {
			if o := store.Find(oid); o != nil {
				for v := o.Verbdefs; v != nil; v = v.Next {
					if v.Program != nil {
						nprogs++
					}
				}
			}
		}

		users := store.AllUsers()

		w.WriteHeader(dbio.CurrentVersion)
		w.Printf("%d\n%d\n%d\n%d\n", maxOid+1, nprogs, 0, users.Len())

		for _, u := range users.List() {
			w.WriteObjid(u.Obj())
		}

		logger.Info().Int64("objects", int64(maxOid)+1).Msg("Writing objects")
		for oid := values.Objid(0); oid <= maxOid; oid++ {
			writeObjectNG(w, store, oid)
			if (oid+1)%10000 == 0 || oid == maxOid {
				logger.Info().Int64("objects", int64(oid)+1).Msg("Done writing objects")
			}
		}

		logger.Info().Int("programs", nprogs).Msg("Writing verb programs")
		written := 0
		for oid := values.Objid(0); oid <= maxOid; oid++ {
			o := store.Find(oid)
			if o == nil {
				continue
			}
			vcount := 0
			for v := o.Verbdefs; v != nil; v = v.Next {
				if v.Program != nil {
					w.Printf("#%d:%d\n", oid, vcount)
					c.cfg.Programs.WriteProgram(w, v.Program)
					if written++; written%5000 == 0 || written == nprogs {
						logger.Info().Int("programs", written).Msg("Done writing verb programs")
					}
				}
				vcount++
			}
		}

		logger.Info().Msg("Writing forked and suspended tasks")
		if c.cfg.TaskQueue != nil {
			c.cfg.TaskQueue.WriteBlock(w)
		}

		logger.Info().Msg("Writing list of formerly active connections")
		if c.cfg.Connections != nil {
			c.cfg.Connections.WriteBlock(w)
		}
	})
}
