package values

// Objid identifies an object in the world. Valid ids are dense [0, N);
// Nothing is the null sentinel.
type Objid int64

// Nothing denotes "no object".
const Nothing Objid = -1

// Kind is the type tag of a Var. The numeric values are the on-disk type
// ordinals and must not be renumbered.
type Kind int

const (
	KindInt   Kind = 0
	KindObj   Kind = 1
	KindStr   Kind = 2
	KindErr   Kind = 3
	KindList  Kind = 4
	KindClear Kind = 5
	KindNone  Kind = 6
	KindFloat Kind = 9
)

// Var is a tagged variant value: integer, float, string, error code,
// object reference, or list of Vars.
type Var struct {
	kind Kind
	num  int64
	flt  float64
	str  string
	list []Var
}

// Clear is the distinguished "clear property slot" value.
func Clear() Var { return Var{kind: KindClear} }

// None is the distinguished "no value" value.
func None() Var { return Var{kind: KindNone} }

func NewInt(n int64) Var      { return Var{kind: KindInt, num: n} }
func NewFloat(f float64) Var  { return Var{kind: KindFloat, flt: f} }
func NewStr(s string) Var     { return Var{kind: KindStr, str: s} }
func NewObj(oid Objid) Var    { return Var{kind: KindObj, num: int64(oid)} }
func NewErr(code int64) Var   { return Var{kind: KindErr, num: code} }
func NewList(elems []Var) Var { return Var{kind: KindList, list: elems} }

func (v Var) Kind() Kind     { return v.kind }
func (v Var) Int() int64     { return v.num }
func (v Var) Float() float64 { return v.flt }
func (v Var) Str() string    { return v.str }
func (v Var) Obj() Objid     { return Objid(v.num) }
func (v Var) Err() int64     { return v.num }

// List returns the underlying element slice. Callers must not mutate it;
// use ListAppend and SetRemove to derive new lists.
func (v Var) List() []Var { return v.list }

// Len returns the element count of a list Var, zero otherwise.
func (v Var) Len() int {
	if v.kind != KindList {
		return 0
	}
	return len(v.list)
}

// IsObj reports whether v is an object reference.
func (v Var) IsObj() bool { return v.kind == KindObj }

// IsList reports whether v is a list.
func (v Var) IsList() bool { return v.kind == KindList }

// ListOfObjs reports whether v is a list whose elements are all object
// references.
func ListOfObjs(v Var) bool {
	if v.kind != KindList {
		return false
	}
	for _, e := range v.list {
		if e.kind != KindObj {
			return false
		}
	}
	return true
}

// ObjOrListOfObjs reports whether v is an object reference or a list of
// object references.
func ObjOrListOfObjs(v Var) bool {
	return v.kind == KindObj || ListOfObjs(v)
}

// Equal reports deep equality of two Vars. Strings compare
// case-sensitively.
func Equal(a, b Var) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInt, KindObj, KindErr:
		return a.num == b.num
	case KindFloat:
		return a.flt == b.flt
	case KindStr:
		return a.str == b.str
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Enlist wraps a scalar in a one-element list; a list passes through
// unchanged.
func Enlist(v Var) Var {
	if v.kind == KindList {
		return v
	}
	return NewList([]Var{v})
}

// ListAppend returns a new list with v appended. The receiver list is not
// modified.
func ListAppend(l Var, v Var) Var {
	out := make([]Var, 0, len(l.list)+1)
	out = append(out, l.list...)
	out = append(out, v)
	return NewList(out)
}

// SetRemove returns a new list with the first element equal to v removed.
// If v is not present the original list is returned.
func SetRemove(l Var, v Var) Var {
	for i, e := range l.list {
		if Equal(e, v) {
			out := make([]Var, 0, len(l.list)-1)
			out = append(out, l.list[:i]...)
			out = append(out, l.list[i+1:]...)
			return NewList(out)
		}
	}
	return l
}

// Member reports whether v occurs in list l.
func Member(v, l Var) bool {
	for _, e := range l.list {
		if Equal(e, v) {
			return true
		}
	}
	return false
}
