package snapshot

import (
	"fmt"

	"github.com/burrowmoo/burrow/pkg/db"
	"github.com/burrowmoo/burrow/pkg/dbio"
	"github.com/burrowmoo/burrow/pkg/dbv4"
	"github.com/burrowmoo/burrow/pkg/values"
)

func readVerbdefs(r *dbio.Reader) *db.Verbdef {
	var head *db.Verbdef
	prev := &head
	for i := r.ReadNum(); i > 0; i-- {
		v := &db.Verbdef{
			Name:  r.ReadStringIntern(),
			Owner: r.ReadObjid(),
			Perms: r.ReadNum(),
			Prep:  r.ReadNum(),
		}
		*prev = v
		prev = &v.Next
	}
	return head
}

func writeVerbdef(w *dbio.Writer, v *db.Verbdef) {
	w.WriteString(v.Name)
	w.WriteObjid(v.Owner)
	w.WriteNum(v.Perms)
	w.WriteNum(v.Prep)
}

func readPropdefs(r *dbio.Reader) []db.Propdef {
	n := r.ReadNum()
	if n == 0 {
		return nil
	}
	defs := make([]db.Propdef, 0, n)
	for i := int64(0); i < n; i++ {
		defs = append(defs, db.Propdef{Name: r.ReadStringIntern()})
	}
	return defs
}

func readPropvals(r *dbio.Reader) []db.Propval {
	n := r.ReadNum()
	if n == 0 {
		return nil
	}
	vals := make([]db.Propval, 0, n)
	for i := int64(0); i < n; i++ {
		vals = append(vals, db.Propval{
			Value: r.ReadVar(),
			Owner: r.ReadObjid(),
			Perms: r.ReadNum(),
		})
	}
	return vals
}

func writePropval(w *dbio.Writer, p db.Propval) {
	w.WriteVar(p.Value)
	w.WriteObjid(p.Owner)
	w.WriteNum(p.Perms)
}

// readObjectV4 reads one v4 object block into the legacy table. Ids must
// arrive consecutively.
func readObjectV4(r *dbio.Reader, t *dbv4.Table) error {
	oid, recycled := r.ReadObjectLabel()
	if oid != t.MaxObjid()+1 {
		return fmt.Errorf("object #%d out of order", oid)
	}
	if recycled {
		t.NewRecycledObject()
		return nil
	}

	o := t.NewObject()
	o.Name = r.ReadStringIntern()
	_ = r.ReadString() // discard old handles string
	o.Flags = r.ReadNum()

	o.Owner = r.ReadObjid()

	o.Location = r.ReadObjid()
	o.Contents = r.ReadObjid()
	o.Next = r.ReadObjid()

	o.Parent = r.ReadObjid()
	o.Child = r.ReadObjid()
	o.Sibling = r.ReadObjid()

	o.Verbdefs = readVerbdefs(r)
	o.Propdefs = readPropdefs(r)
	o.Propval = readPropvals(r)
	return nil
}

// readObjectNG reads one next-gen object block into the live store. Ids
// must arrive consecutively.
func readObjectNG(r *dbio.Reader, store *db.Store) error {
	oid, recycled := r.ReadObjectLabel()
	if oid != store.MaxObjid()+1 {
		return fmt.Errorf("object #%d out of order", oid)
	}
	if recycled {
		store.NewRecycledObject()
		return nil
	}

	o := store.NewObject()
	o.Name = r.ReadStringIntern()
	o.Flags = r.ReadNum()

	o.Owner = r.ReadObjid()

	o.Location = r.ReadVar()
	o.Contents = r.ReadVar()

	o.Parents = r.ReadVar()
	o.Children = r.ReadVar()

	o.Verbdefs = readVerbdefs(r)
	o.Propdefs = readPropdefs(r)
	o.Propval = readPropvals(r)
	return nil
}

// writeObjectNG writes one object block in the next-gen form. Recycled
// slots are preserved so object ids stay stable across dump and load.
func writeObjectNG(w *dbio.Writer, store *db.Store, oid values.Objid) {
	if !store.Valid(oid) {
		w.Printf("#%d recycled\n", oid)
		return
	}
	o := store.Find(oid)

	w.Printf("#%d\n", oid)
	w.WriteString(o.Name)
	w.WriteNum(o.Flags)

	w.WriteObjid(o.Owner)

	w.WriteVar(o.Location)
	w.WriteVar(o.Contents)

	w.WriteVar(o.Parents)
	w.WriteVar(o.Children)

	w.WriteNum(int64(o.VerbdefCount()))
	for v := o.Verbdefs; v != nil; v = v.Next {
		writeVerbdef(w, v)
	}

	w.WriteNum(int64(len(o.Propdefs)))
	for i := range o.Propdefs {
		w.WriteString(o.Propdefs[i].Name)
	}

	nprops := store.CountProperties(oid)
	w.WriteNum(int64(nprops))
	for i := 0; i < nprops; i++ {
		writePropval(w, o.Propval[i])
	}
}
