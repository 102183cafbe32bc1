package dbio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/burrowmoo/burrow/pkg/intern"
	"github.com/burrowmoo/burrow/pkg/values"
)

const (
	headerPrefix = "** LambdaMOO Database, Format Version "
	headerSuffix = " **"
)

// Reader decodes the typed primitives of the snapshot format from an
// underlying byte stream. All Read methods abandon the load through the
// enclosing Frame on any I/O failure or parse mismatch.
type Reader struct {
	r    *bufio.Reader
	pool *intern.Pool
}

// NewReader wraps r in a snapshot decoder.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// SetPool installs the interning pool consulted by ReadStringIntern. A nil
// or closed pool degrades to plain reads.
func (r *Reader) SetPool(p *intern.Pool) {
	r.pool = p
}

func (r *Reader) readLine() string {
	line, err := r.r.ReadString('\n')
	if err != nil {
		fail("read line: %v", err)
	}
	return strings.TrimSuffix(line, "\n")
}

// ReadNum reads a newline-terminated signed decimal integer.
func (r *Reader) ReadNum() int64 {
	line := r.readLine()
	n, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		fail("expected number, got %q", line)
	}
	return n
}

// ReadObjid reads an object id, encoded exactly as a num.
func (r *Reader) ReadObjid() values.Objid {
	return values.Objid(r.ReadNum())
}

// ReadFloat reads a newline-terminated floating point number.
func (r *Reader) ReadFloat() float64 {
	line := r.readLine()
	f, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fail("expected float, got %q", line)
	}
	return f
}

// ReadString reads one newline-terminated string. The encoding carries no
// escaping; strings never contain newlines.
func (r *Reader) ReadString() string {
	return r.readLine()
}

// ReadStringIntern reads a string and installs it in the intern pool,
// returning the canonical copy.
func (r *Reader) ReadStringIntern() string {
	s := r.readLine()
	if r.pool != nil {
		return r.pool.Intern(s)
	}
	return s
}

// ReadHeader parses the fixed header line and returns the declared format
// version. A stream that does not begin with the header line is from
// prehistory; nothing is consumed in that case.
func (r *Reader) ReadHeader() Version {
	peek, err := r.r.Peek(len(headerPrefix))
	if err != nil || string(peek) != headerPrefix {
		return VersionPrehistory
	}
	line := r.readLine()
	body := strings.TrimPrefix(line, headerPrefix)
	body, ok := strings.CutSuffix(body, headerSuffix)
	if !ok {
		fail("malformed header line %q", line)
	}
	n, err := strconv.ParseUint(body, 10, 32)
	if err != nil {
		fail("malformed header version in %q", line)
	}
	return Version(n)
}

// ReadObjectLabel parses an object framing line: "#<n>" begins a live
// object and "#<n> recycled" reserves an empty slot.
func (r *Reader) ReadObjectLabel() (oid values.Objid, recycled bool) {
	line := r.readLine()
	body, ok := strings.CutPrefix(line, "#")
	if !ok {
		fail("bad object label %q", line)
	}
	if rest, wasRecycled := strings.CutSuffix(body, " recycled"); wasRecycled {
		body = rest
		recycled = true
	}
	n, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		fail("bad object label %q", line)
	}
	return values.Objid(n), recycled
}

// ReadProgramLabel parses a verb program framing line "#<oid>:<vnum>".
func (r *Reader) ReadProgramLabel() (oid values.Objid, vnum int64) {
	line := r.readLine()
	body, ok := strings.CutPrefix(line, "#")
	if !ok {
		fail("bad program label %q", line)
	}
	oidStr, vnumStr, found := strings.Cut(body, ":")
	if !found {
		fail("bad program label %q", line)
	}
	o, err := strconv.ParseInt(oidStr, 10, 64)
	if err != nil {
		fail("bad program label %q", line)
	}
	v, err := strconv.ParseInt(vnumStr, 10, 64)
	if err != nil {
		fail("bad program label %q", line)
	}
	return values.Objid(o), v
}

// ReadVar reads one value: a type ordinal line followed by the payload,
// recursing for lists.
func (r *Reader) ReadVar() values.Var {
	kind := values.Kind(r.ReadNum())
	switch kind {
	case values.KindClear:
		return values.Clear()
	case values.KindNone:
		return values.None()
	case values.KindInt:
		return values.NewInt(r.ReadNum())
	case values.KindObj:
		return values.NewObj(r.ReadObjid())
	case values.KindErr:
		return values.NewErr(r.ReadNum())
	case values.KindStr:
		return values.NewStr(r.ReadStringIntern())
	case values.KindFloat:
		return values.NewFloat(r.ReadFloat())
	case values.KindList:
		n := r.ReadNum()
		if n < 0 {
			fail("negative list length %d", n)
		}
		elems := make([]values.Var, n)
		for i := range elems {
			elems[i] = r.ReadVar()
		}
		return values.NewList(elems)
	default:
		fail("unknown value type %d", kind)
	}
	return values.Var{}
}
