package snapshot

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/burrowmoo/burrow/pkg/db"
	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/metrics"
	"github.com/burrowmoo/burrow/pkg/values"
)

// ErrBroken is returned when validation finds damage it cannot repair.
var ErrBroken = errors.New("object hierarchies are inconsistent")

const progressInterval = 10000

// ValidateStore runs the three-phase integrity pass over a next-gen
// store. Structural type violations and anything found by phases 2 and 3
// fail the load; dangling ids inside list fields are removed and dangling
// scalar ids are nulled.
func ValidateStore(store *db.Store) error {
	logger := log.WithComponent("validate")
	size := store.MaxObjid() + 1
	broken := false

	progress := func(oid values.Objid, next *values.Objid) {
		if oid == *next {
			*next += progressInterval
			logger.Info().Int64("objid", int64(oid)).Msg("Done through object")
		}
	}

	logger.Info().Msg("VALIDATING the object hierarchies")

	logger.Info().Msg("Phase 1: Check for invalid objects")
	next := values.Objid(progressInterval)
	for oid := values.Objid(0); oid < size; oid++ {
		progress(oid, &next)
		o := store.Find(oid)
		if o == nil {
			continue
		}

		if !values.ObjOrListOfObjs(o.Parents) {
			logger.Error().Int64("objid", int64(oid)).Msg("parents is not an object or list of objects")
			broken = true
		}
		if !values.ListOfObjs(o.Children) {
			logger.Error().Int64("objid", int64(oid)).Msg("children is not a list of objects")
			broken = true
		}
		if !o.Location.IsObj() {
			logger.Error().Int64("objid", int64(oid)).Msg("location is not an object")
			broken = true
		}
		if !values.ListOfObjs(o.Contents) {
			logger.Error().Int64("objid", int64(oid)).Msg("contents is not a list of objects")
			broken = true
		}

		if !broken {
			o.Parents = repairRefs(store, logger, oid, "parent", o.Parents)
			o.Children = repairRefs(store, logger, oid, "child", o.Children)
			o.Location = repairRefs(store, logger, oid, "location", o.Location)
			o.Contents = repairRefs(store, logger, oid, "content", o.Contents)
		}
	}
	if broken {
		// Can't continue if invalid objects found
		return ErrBroken
	}

	logger.Info().Msg("Phase 2: Check for cycles")
	next = progressInterval
	for oid := values.Objid(0); oid < size; oid++ {
		progress(oid, &next)
		if store.Find(oid) == nil {
			continue
		}
		if containsObjid(store.Ancestors(oid), oid) {
			logger.Error().Int64("objid", int64(oid)).Str("chain", "parent").Msg("Cycle in chain")
			broken = true
		}
		if containsObjid(store.AllLocations(oid), oid) {
			logger.Error().Int64("objid", int64(oid)).Str("chain", "location").Msg("Cycle in chain")
			broken = true
		}
	}
	if broken {
		// Can't continue if cycles found
		return ErrBroken
	}

	logger.Info().Msg("Phase 3: Check for inconsistencies")
	next = progressInterval
	for oid := values.Objid(0); oid < size; oid++ {
		progress(oid, &next)
		o := store.Find(oid)
		if o == nil {
			continue
		}
		broken = checkPaired(store, logger, oid, o.Location, "location",
			func(o *db.Object) values.Var { return o.Contents }, "contents") || broken
		broken = checkPaired(store, logger, oid, o.Contents, "content",
			func(o *db.Object) values.Var { return o.Location }, "location") || broken
		broken = checkPaired(store, logger, oid, o.Parents, "parent",
			func(o *db.Object) values.Var { return o.Children }, "children") || broken
		broken = checkPaired(store, logger, oid, o.Children, "child",
			func(o *db.Object) values.Var { return o.Parents }, "parents") || broken
	}

	logger.Info().Msg("VALIDATING the object hierarchies finished")
	if broken {
		return ErrBroken
	}
	return nil
}

// repairRefs removes dangling ids from a list field and nulls a dangling
// scalar, logging and counting each repair.
func repairRefs(store *db.Store, logger zerolog.Logger, oid values.Objid, name string, field values.Var) values.Var {
	if field.IsList() {
		for _, e := range field.List() {
			if e.Obj() != values.Nothing && !store.Valid(e.Obj()) {
				logger.Error().
					Int64("objid", int64(oid)).
					Str("field", name).
					Int64("target", int64(e.Obj())).
					Msg("Invalid reference, removed")
				metrics.ValidationRepairs.Inc()
				field = values.SetRemove(field, e)
			}
		}
		return field
	}
	if field.Obj() != values.Nothing && !store.Valid(field.Obj()) {
		logger.Error().
			Int64("objid", int64(oid)).
			Str("field", name).
			Int64("target", int64(field.Obj())).
			Msg("Invalid reference, fixed")
		metrics.ValidationRepairs.Inc()
		return values.NewObj(values.Nothing)
	}
	return field
}

func containsObjid(ids []values.Objid, oid values.Objid) bool {
	for _, id := range ids {
		if id == oid {
			return true
		}
	}
	return false
}

// checkPaired verifies that for every target in the up field of oid, oid
// is a member of the target's down field.
func checkPaired(store *db.Store, logger zerolog.Logger, oid values.Objid, up values.Var, upName string, down func(*db.Object) values.Var, downName string) bool {
	broken := false
	self := values.NewObj(oid)
	for _, t := range values.Enlist(up).List() {
		if t.Obj() == values.Nothing {
			continue
		}
		target := store.Find(t.Obj())
		if target == nil {
			continue
		}
		if !values.Member(self, values.Enlist(down(target))) {
			logger.Error().
				Int64("objid", int64(oid)).
				Str("up", upName).
				Int64("up_objid", int64(target.ID)).
				Str("list", downName).
				Msg("Object missing from its list")
			broken = true
		}
	}
	return broken
}
