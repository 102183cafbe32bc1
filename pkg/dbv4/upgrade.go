package dbv4

import (
	"github.com/burrowmoo/burrow/pkg/db"
	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/values"
)

// Upgrade converts the legacy table into the live store, slot by slot and
// in order, so that object ids are stable across the migration. The
// intrusive sibling chains become list-valued fields; verbdefs, propdefs,
// and propvals transfer structurally unchanged. The table is released
// afterwards.
//
// A legacy parent of Nothing still becomes a scalar object value wrapping
// the sentinel, not an empty list; downstream code distinguishes "no
// parent" from "no parents field".
func (t *Table) Upgrade(store *db.Store) {
	logger := log.WithComponent("upgrade")
	size := t.MaxObjid() + 1

	logger.Info().Msg("UPGRADING objects to new structure")

	next := values.Objid(progressInterval)
	for oid := values.Objid(0); oid < size; oid++ {
		maybeLogProgress(oid, &next)
		o := t.Find(oid)
		if o == nil {
			store.NewRecycledObject()
			continue
		}

		obj := store.NewObject()
		obj.Name = o.Name
		obj.Flags = o.Flags
		obj.Owner = o.Owner

		obj.Parents = values.NewObj(o.Parent)

		obj.Children = values.NewList(nil)
		for iter := o.Child; iter != values.Nothing; iter = t.objects[iter].Sibling {
			obj.Children = values.ListAppend(obj.Children, values.NewObj(iter))
		}

		obj.Location = values.NewObj(o.Location)

		obj.Contents = values.NewList(nil)
		for iter := o.Contents; iter != values.Nothing; iter = t.objects[iter].Next {
			obj.Contents = values.ListAppend(obj.Contents, values.NewObj(iter))
		}

		obj.Verbdefs = o.Verbdefs
		obj.Propdefs = o.Propdefs
		obj.Propval = o.Propval
	}

	t.objects = nil

	logger.Info().Msg("UPGRADING objects to new structure finished")
}
