package dbv4

import (
	"errors"

	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/metrics"
	"github.com/burrowmoo/burrow/pkg/values"
)

// ErrBroken is returned when validation finds damage it cannot repair:
// a cycle in a chain or a bidirectional inconsistency.
var ErrBroken = errors.New("object hierarchies are inconsistent")

const progressInterval = 10000

func maybeLogProgress(oid values.Objid, next *values.Objid) {
	if oid == *next {
		*next += progressInterval
		logger := log.WithComponent("validate")
		logger.Info().Int64("objid", int64(oid)).Msg("Done through object")
	}
}

// Validate runs the three-phase integrity pass over the legacy table.
// Phase 1 repairs dangling references in place; phases 2 and 3 are checks
// only, and any finding there fails the load.
func (t *Table) Validate() error {
	logger := log.WithComponent("validate")
	size := t.MaxObjid() + 1
	broken := false

	logger.Info().Msg("VALIDATING the object hierarchies")

	logger.Info().Msg("Phase 1: Check for invalid objects")
	fixedNexts := 0
	next := values.Objid(progressInterval)
	for oid := values.Objid(0); oid < size; oid++ {
		maybeLogProgress(oid, &next)
		o := t.Find(oid)
		if o == nil {
			continue
		}
		if o.Location == values.Nothing && o.Next != values.Nothing {
			o.Next = values.Nothing
			fixedNexts++
		}
		check := func(field *values.Objid, name string) {
			if *field != values.Nothing && !t.Valid(*field) {
				logger.Error().
					Int64("objid", int64(oid)).
					Str("field", name).
					Int64("target", int64(*field)).
					Msg("Invalid reference, fixed")
				metrics.ValidationRepairs.Inc()
				*field = values.Nothing
			}
		}
		check(&o.Parent, "parent")
		check(&o.Child, "child")
		check(&o.Sibling, "sibling")
		check(&o.Location, "location")
		check(&o.Contents, "contents")
		check(&o.Next, "next")
	}
	if fixedNexts != 0 {
		logger.Error().Int("count", fixedNexts).Msg("Fixed should-be-null next pointers")
	}

	logger.Info().Msg("Phase 2: Check for cycles")
	next = progressInterval
	for oid := values.Objid(0); oid < size; oid++ {
		maybeLogProgress(oid, &next)
		o := t.Find(oid)
		if o == nil {
			continue
		}
		checkChain := func(start values.Objid, step func(*Object) values.Objid, name string) {
			count := values.Objid(0)
			for id := start; id != values.Nothing; id = step(t.Find(id)) {
				if count++; count > size {
					logger.Error().
						Int64("objid", int64(oid)).
						Str("chain", name).
						Msg("Cycle in chain")
					broken = true
					break
				}
			}
		}
		checkChain(o.Parent, func(o *Object) values.Objid { return o.Parent }, "parent")
		checkChain(o.Child, func(o *Object) values.Objid { return o.Sibling }, "child")
		checkChain(o.Location, func(o *Object) values.Objid { return o.Location }, "location")
		checkChain(o.Contents, func(o *Object) values.Objid { return o.Next }, "contents")
	}
	if broken {
		// Can't continue if cycles found
		return ErrBroken
	}

	logger.Info().Msg("Phase 3: Check for inconsistencies")
	next = progressInterval
	for oid := values.Objid(0); oid < size; oid++ {
		maybeLogProgress(oid, &next)
		o := t.Find(oid)
		if o == nil {
			continue
		}

		// Is oid in its up's down list?
		checkMembership := func(up values.Objid, upName string, down func(*Object) values.Objid, downName string, across func(*Object) values.Objid) {
			if up == values.Nothing {
				return
			}
			id := down(t.Find(up))
			for ; id != values.Nothing; id = across(t.Find(id)) {
				if id == oid {
					break
				}
			}
			if id == values.Nothing {
				logger.Error().
					Int64("objid", int64(oid)).
					Str("up", upName).
					Int64("up_objid", int64(up)).
					Str("list", downName).
					Msg("Object missing from its list")
				broken = true
			}
		}
		checkMembership(o.Parent, "parent",
			func(o *Object) values.Objid { return o.Child }, "child",
			func(o *Object) values.Objid { return o.Sibling })
		checkMembership(o.Location, "location",
			func(o *Object) values.Objid { return o.Contents }, "contents",
			func(o *Object) values.Objid { return o.Next })

		// Does everything on oid's down list point back at oid?
		checkBacklinks := func(up func(*Object) values.Objid, start values.Objid, downName string, across func(*Object) values.Objid) {
			for id := start; id != values.Nothing; id = across(t.Find(id)) {
				if up(t.Find(id)) != oid {
					logger.Error().
						Int64("objid", int64(id)).
						Int64("list_owner", int64(oid)).
						Str("list", downName).
						Msg("Object erroneously on list")
					broken = true
				}
			}
		}
		checkBacklinks(func(o *Object) values.Objid { return o.Parent }, o.Child, "child",
			func(o *Object) values.Objid { return o.Sibling })
		checkBacklinks(func(o *Object) values.Objid { return o.Location }, o.Contents, "contents",
			func(o *Object) values.Objid { return o.Next })
	}

	logger.Info().Msg("VALIDATING the object hierarchies finished")
	if broken {
		return ErrBroken
	}
	return nil
}
