package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Var
		expected bool
	}{
		{"equal ints", NewInt(7), NewInt(7), true},
		{"unequal ints", NewInt(7), NewInt(8), false},
		{"int vs obj with same payload", NewInt(3), NewObj(3), false},
		{"equal objids", NewObj(Nothing), NewObj(Nothing), true},
		{"equal strings", NewStr("wizard"), NewStr("wizard"), true},
		{"strings are case sensitive", NewStr("Wizard"), NewStr("wizard"), false},
		{"equal floats", NewFloat(1.5), NewFloat(1.5), true},
		{"clear equals clear", Clear(), Clear(), true},
		{
			"equal nested lists",
			NewList([]Var{NewInt(1), NewList([]Var{NewObj(2)})}),
			NewList([]Var{NewInt(1), NewList([]Var{NewObj(2)})}),
			true,
		},
		{
			"lists of different length",
			NewList([]Var{NewInt(1)}),
			NewList([]Var{NewInt(1), NewInt(2)}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Equal(tt.a, tt.b))
		})
	}
}

func TestEnlist(t *testing.T) {
	scalar := NewObj(5)
	enlisted := Enlist(scalar)
	assert.True(t, enlisted.IsList())
	assert.Equal(t, 1, enlisted.Len())
	assert.True(t, Equal(scalar, enlisted.List()[0]))

	list := NewList([]Var{NewObj(1), NewObj(2)})
	assert.True(t, Equal(list, Enlist(list)))
}

func TestListAppend(t *testing.T) {
	l := NewList(nil)
	l2 := ListAppend(l, NewObj(1))
	l3 := ListAppend(l2, NewObj(2))

	// Originals are untouched
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 1, l2.Len())
	assert.Equal(t, 2, l3.Len())
	assert.Equal(t, Objid(2), l3.List()[1].Obj())
}

func TestSetRemove(t *testing.T) {
	l := NewList([]Var{NewObj(1), NewObj(2), NewObj(1)})

	removed := SetRemove(l, NewObj(1))
	assert.Equal(t, 2, removed.Len(), "only the first occurrence is removed")
	assert.Equal(t, Objid(2), removed.List()[0].Obj())
	assert.Equal(t, Objid(1), removed.List()[1].Obj())

	// Absent element leaves the list as-is
	same := SetRemove(l, NewObj(9))
	assert.True(t, Equal(l, same))
}

func TestMember(t *testing.T) {
	l := NewList([]Var{NewObj(1), NewStr("x")})
	assert.True(t, Member(NewObj(1), l))
	assert.True(t, Member(NewStr("x"), l))
	assert.False(t, Member(NewObj(2), l))
	assert.False(t, Member(NewInt(1), l), "kind mismatch is not membership")
}

func TestStructuralPredicates(t *testing.T) {
	assert.True(t, ObjOrListOfObjs(NewObj(3)))
	assert.True(t, ObjOrListOfObjs(NewList([]Var{NewObj(1), NewObj(Nothing)})))
	assert.True(t, ObjOrListOfObjs(NewList(nil)))
	assert.False(t, ObjOrListOfObjs(NewInt(3)))
	assert.False(t, ObjOrListOfObjs(NewList([]Var{NewInt(1)})))

	assert.True(t, ListOfObjs(NewList([]Var{NewObj(1)})))
	assert.False(t, ListOfObjs(NewObj(1)))
	assert.False(t, ListOfObjs(NewList([]Var{NewStr("no")})))
}
