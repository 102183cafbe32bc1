package db

import (
	"github.com/burrowmoo/burrow/pkg/program"
	"github.com/burrowmoo/burrow/pkg/values"
)

// Verbdef is the metadata record for a verb, excluding its compiled body.
// Verbdefs form an ordered singly-linked sequence hanging off their
// defining object; verb program bindings in a snapshot address verbs by
// ordinal position in this sequence.
type Verbdef struct {
	Name    string
	Owner   values.Objid
	Perms   int64
	Prep    int64
	Program *program.Program
	Next    *Verbdef
}

// Propdef names a property defined locally on an object. The semantic type
// of the slot is carried by the value, not the definition.
type Propdef struct {
	Name string
}

// Propval is a per-object property-value slot.
type Propval struct {
	Value values.Var
	Owner values.Objid
	Perms int64
}

// Object is a live world object. The relationship fields are general
// values: Parents is one object id or an ordered list of object ids
// (multiple inheritance), Children and Contents are ordered lists, and
// Location is an object id.
//
// Propval is a flat array whose length equals the total count of propdefs
// along the full ancestor chain, laid out in inheritance order.
type Object struct {
	ID    values.Objid
	Name  string
	Flags int64
	Owner values.Objid

	Location values.Var
	Contents values.Var
	Parents  values.Var
	Children values.Var

	Verbdefs *Verbdef
	Propdefs []Propdef
	Propval  []Propval
}

// VerbdefCount returns the length of the verbdef sequence.
func (o *Object) VerbdefCount() int {
	n := 0
	for v := o.Verbdefs; v != nil; v = v.Next {
		n++
	}
	return n
}
