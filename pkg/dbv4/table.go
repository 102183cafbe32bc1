package dbv4

import (
	"github.com/burrowmoo/burrow/pkg/db"
	"github.com/burrowmoo/burrow/pkg/values"
)

// Object is a world object in the legacy v4 representation. Inheritance is
// a first-child/next-sibling tree (Parent/Child/Sibling) and containment a
// head/next list (Location/Contents/Next). Objects of this form exist only
// while a v4 snapshot is being loaded; the migrator converts them into the
// live store and the table is released.
type Object struct {
	ID       values.Objid
	Owner    values.Objid
	Location values.Objid
	Contents values.Objid
	Next     values.Objid

	Parent  values.Objid
	Child   values.Objid
	Sibling values.Objid

	Name  string
	Flags int64

	Verbdefs *db.Verbdef
	Propdefs []db.Propdef
	Propval  []db.Propval
}

// Table is the transient shadow table built while loading a v4 snapshot.
type Table struct {
	objects []*Object
}

// NewTable creates an empty legacy table.
func NewTable() *Table {
	return &Table{objects: make([]*Object, 0, 100)}
}

// NewObject allocates the next slot and returns the legacy object
// occupying it, with ID already assigned.
func (t *Table) NewObject() *Object {
	o := &Object{ID: values.Objid(len(t.objects))}
	t.objects = append(t.objects, o)
	return o
}

// NewRecycledObject reserves the next slot as empty.
func (t *Table) NewRecycledObject() {
	t.objects = append(t.objects, nil)
}

// Find returns the legacy object with the given id, or nil for recycled
// slots and out-of-range ids.
func (t *Table) Find(oid values.Objid) *Object {
	if oid < 0 || int64(oid) >= int64(len(t.objects)) {
		return nil
	}
	return t.objects[oid]
}

// Valid reports whether oid denotes a live legacy object.
func (t *Table) Valid(oid values.Objid) bool {
	return t.Find(oid) != nil
}

// MaxObjid returns the highest allocated object id, or -1 when empty.
func (t *Table) MaxObjid() values.Objid {
	return values.Objid(len(t.objects) - 1)
}

// CountProperties sums the propdef counts along the parent chain of oid,
// inclusive: the propval count a legacy object is expected to carry. The
// v4 object reader takes the propval count from the snapshot itself and
// does not call this.
func (t *Table) CountProperties(oid values.Objid) int {
	n := 0
	for o := t.Find(oid); o != nil; o = t.Find(o.Parent) {
		n += len(o.Propdefs)
	}
	return n
}

// FindIndexedVerb resolves a one-based ordinal within an object's verbdef
// sequence, or nil when out of range.
func (t *Table) FindIndexedVerb(oid values.Objid, index int) *db.Verbdef {
	o := t.Find(oid)
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
