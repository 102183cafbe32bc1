package db

import (
	"github.com/burrowmoo/burrow/pkg/values"
)

// Store is the live object table: a dense arena indexed by object id.
// Recycled slots hold nil so that object ids stay stable across dump and
// load. The store is created by the snapshot loader and mutated only by
// the virtual machine; the persistence core reads it at checkpoint time.
type Store struct {
	objects []*Object
	users   values.Var
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{users: values.NewList(nil)}
}

// NewObject allocates the next slot and returns the live object occupying
// it, with ID already assigned.
func (s *Store) NewObject() *Object {
	o := &Object{ID: values.Objid(len(s.objects))}
	s.objects = append(s.objects, o)
	return o
}

// NewRecycledObject reserves the next slot as empty.
func (s *Store) NewRecycledObject() {
	s.objects = append(s.objects, nil)
}

// Find returns the object with the given id, or nil for recycled slots and
// out-of-range ids.
func (s *Store) Find(oid values.Objid) *Object {
	if oid < 0 || int64(oid) >= int64(len(s.objects)) {
		return nil
	}
	return s.objects[oid]
}

// Valid reports whether oid denotes a live object.
func (s *Store) Valid(oid values.Objid) bool {
	return s.Find(oid) != nil
}

// MaxObjid returns the highest allocated object id, or -1 for an empty
// store. Recycled slots count.
func (s *Store) MaxObjid() values.Objid {
	return values.Objid(len(s.objects) - 1)
}

// Recycle empties the slot occupied by oid. Ids of other objects are
// unaffected.
func (s *Store) Recycle(oid values.Objid) {
	if oid >= 0 && int64(oid) < int64(len(s.objects)) {
		s.objects[oid] = nil
	}
}

// SetAllUsers installs the set of player objects.
func (s *Store) SetAllUsers(users values.Var) {
	s.users = users
}

// AllUsers returns the set of player objects.
func (s *Store) AllUsers() values.Var {
	return s.users
}

// Ancestors returns the transitive parents of oid in depth-first order,
// deduplicated, excluding oid itself unless a parent cycle leads back to
// it. Unknown ids and Nothing are skipped.
func (s *Store) Ancestors(oid values.Objid) []values.Objid {
	var out []values.Objid
	seen := make(map[values.Objid]bool)
	var visit func(values.Objid)
	visit = func(id values.Objid) {
		o := s.Find(id)
		if o == nil {
			return
		}
		for _, p := range values.Enlist(o.Parents).List() {
			pid := p.Obj()
			if pid == values.Nothing || seen[pid] {
				continue
			}
			seen[pid] = true
			out = append(out, pid)
			visit(pid)
		}
	}
	visit(oid)
	return out
}

// AllLocations returns the transitive enclosing locations of oid,
// deduplicated, excluding oid itself unless a containment cycle leads back
// to it.
func (s *Store) AllLocations(oid values.Objid) []values.Objid {
	var out []values.Objid
	seen := make(map[values.Objid]bool)
	id := oid
	for {
		o := s.Find(id)
		if o == nil || !o.Location.IsObj() {
			return out
		}
		loc := o.Location.Obj()
		if loc == values.Nothing || seen[loc] {
			return out
		}
		seen[loc] = true
		out = append(out, loc)
		id = loc
	}
}

// CountProperties returns the length the propval array of oid must have:
// the sum of propdef counts over oid and all of its ancestors.
func (s *Store) CountProperties(oid values.Objid) int {
	n := 0
	if o := s.Find(oid); o != nil {
		n += len(o.Propdefs)
	}
	for _, aid := range s.Ancestors(oid) {
		if a := s.Find(aid); a != nil {
			n += len(a.Propdefs)
		}
	}
	return n
}

// FindIndexedVerb resolves a one-based ordinal within an object's verbdef
// sequence. It returns nil when oid is not live or the ordinal is out of
// range.
func (s *Store) FindIndexedVerb(oid values.Objid, index int) *Verbdef {
	o := s.Find(oid)
	if o == nil {
		return nil
	}
	i := 0
	for v := o.Verbdefs; v != nil; v = v.Next {
		i++
		if i == index {
			return v
		}
	}
	return nil
}
