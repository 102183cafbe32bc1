package dbio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowmoo/burrow/pkg/intern"
	"github.com/burrowmoo/burrow/pkg/values"
)

func roundTrip(t *testing.T, write func(*Writer), read func(*Reader)) {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, Frame(func() { write(w) }))
	require.NoError(t, w.Flush())
	require.NoError(t, Frame(func() { read(NewReader(&buf)) }))
}

func TestNumRoundTrip(t *testing.T) {
	nums := []int64{0, 1, -1, 42, -100000, 1 << 40}
	roundTrip(t,
		func(w *Writer) {
			for _, n := range nums {
				w.WriteNum(n)
			}
		},
		func(r *Reader) {
			for _, n := range nums {
				assert.Equal(t, n, r.ReadNum())
			}
		})
}

func TestStringRoundTrip(t *testing.T) {
	strs := []string{"", "generic thing", "  leading and trailing  ", "#0:tell"}
	roundTrip(t,
		func(w *Writer) {
			for _, s := range strs {
				w.WriteString(s)
			}
		},
		func(r *Reader) {
			for _, s := range strs {
				assert.Equal(t, s, r.ReadString())
			}
		})
}

func TestVarRoundTrip(t *testing.T) {
	vars := []values.Var{
		values.NewInt(-7),
		values.NewObj(values.Nothing),
		values.NewStr("a string"),
		values.NewErr(2),
		values.NewFloat(3.141592653589793),
		values.Clear(),
		values.None(),
		values.NewList(nil),
		values.NewList([]values.Var{
			values.NewObj(1),
			values.NewList([]values.Var{values.NewStr("nested"), values.NewInt(0)}),
		}),
	}
	roundTrip(t,
		func(w *Writer) {
			for _, v := range vars {
				w.WriteVar(v)
			}
		},
		func(r *Reader) {
			for _, v := range vars {
				assert.True(t, values.Equal(v, r.ReadVar()), "round trip of %v", v)
			}
		})
}

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, Frame(func() { w.WriteHeader(CurrentVersion) }))
	require.NoError(t, w.Flush())
	assert.Equal(t, "** LambdaMOO Database, Format Version 5 **\n", buf.String())

	r := NewReader(&buf)
	var got Version
	require.NoError(t, Frame(func() { got = r.ReadHeader() }))
	assert.Equal(t, CurrentVersion, got)
}

func TestHeaderAbsentMeansPrehistory(t *testing.T) {
	// A prehistoric snapshot starts directly with the object count. The
	// header probe must not consume anything.
	r := NewReader(strings.NewReader("17\n"))
	var v Version
	var n int64
	require.NoError(t, Frame(func() {
		v = r.ReadHeader()
		n = r.ReadNum()
	}))
	assert.Equal(t, VersionPrehistory, v)
	assert.True(t, v.Legacy())
	assert.Equal(t, int64(17), n)
}

func TestObjectLabel(t *testing.T) {
	r := NewReader(strings.NewReader("#12\n#13 recycled\n"))
	require.NoError(t, Frame(func() {
		oid, recycled := r.ReadObjectLabel()
		assert.Equal(t, values.Objid(12), oid)
		assert.False(t, recycled)

		oid, recycled = r.ReadObjectLabel()
		assert.Equal(t, values.Objid(13), oid)
		assert.True(t, recycled)
	}))
}

func TestProgramLabel(t *testing.T) {
	r := NewReader(strings.NewReader("#4:2\n"))
	require.NoError(t, Frame(func() {
		oid, vnum := r.ReadProgramLabel()
		assert.Equal(t, values.Objid(4), oid)
		assert.Equal(t, int64(2), vnum)
	}))
}

func TestFrameCatchesParseMismatch(t *testing.T) {
	r := NewReader(strings.NewReader("not a number\n"))
	err := Frame(func() { r.ReadNum() })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFailed))
}

func TestFrameCatchesTruncation(t *testing.T) {
	r := NewReader(strings.NewReader("12"))
	err := Frame(func() { r.ReadNum() })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFailed))
}

func TestFrameLetsOtherPanicsThrough(t *testing.T) {
	assert.Panics(t, func() {
		_ = Frame(func() { panic("unrelated") })
	})
}

func TestFail(t *testing.T) {
	err := Frame(func() { Fail("collaborator gave up: %d", 9) })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFailed))
	assert.Contains(t, err.Error(), "collaborator gave up: 9")
}

func TestReadStringIntern(t *testing.T) {
	pool := intern.NewPool()
	pool.Open(0)
	defer pool.Close()

	r := NewReader(strings.NewReader("look\nlook\n"))
	r.SetPool(pool)
	require.NoError(t, Frame(func() {
		a := r.ReadStringIntern()
		b := r.ReadStringIntern()
		assert.Equal(t, "look", a)
		assert.Equal(t, "look", b)
	}))
	hits, misses := pool.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestFloatRoundTrip(t *testing.T) {
	floats := []float64{0, -0.5, 1e300, 0.1, 3.141592653589793}
	roundTrip(t,
		func(w *Writer) {
			for _, f := range floats {
				w.WriteFloat(f)
			}
		},
		func(r *Reader) {
			for _, f := range floats {
				assert.Equal(t, f, r.ReadFloat())
			}
		})
}
