package dbio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/burrowmoo/burrow/pkg/values"
)

// Writer encodes the typed primitives of the snapshot format onto an
// underlying byte stream. Write methods abandon the dump through the
// enclosing Frame on any I/O failure.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w in a snapshot encoder.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) writeRaw(s string) {
	if _, err := w.w.WriteString(s); err != nil {
		fail("write: %v", err)
	}
}

// WriteNum writes a newline-terminated signed decimal integer.
func (w *Writer) WriteNum(n int64) {
	w.writeRaw(strconv.FormatInt(n, 10))
	w.writeRaw("\n")
}

// WriteObjid writes an object id, encoded exactly as a num.
func (w *Writer) WriteObjid(oid values.Objid) {
	w.WriteNum(int64(oid))
}

// WriteFloat writes a newline-terminated floating point number in the
// shortest representation that parses back exactly.
func (w *Writer) WriteFloat(f float64) {
	w.writeRaw(strconv.FormatFloat(f, 'g', -1, 64))
	w.writeRaw("\n")
}

// WriteString writes one newline-terminated string. Strings must not
// contain newlines; the source value system guarantees this.
func (w *Writer) WriteString(s string) {
	w.writeRaw(s)
	w.writeRaw("\n")
}

// Printf writes a formatted framing line.
func (w *Writer) Printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(w.w, format, args...); err != nil {
		fail("write: %v", err)
	}
}

// WriteHeader writes the fixed header line declaring the format version.
func (w *Writer) WriteHeader(v Version) {
	w.Printf("%s%d%s\n", headerPrefix, v, headerSuffix)
}

// WriteVar writes one value: a type ordinal line followed by the payload,
// recursing for lists.
func (w *Writer) WriteVar(v values.Var) {
	w.WriteNum(int64(v.Kind()))
	switch v.Kind() {
	case values.KindClear, values.KindNone:
	case values.KindInt:
		w.WriteNum(v.Int())
	case values.KindObj:
		w.WriteObjid(v.Obj())
	case values.KindErr:
		w.WriteNum(v.Err())
	case values.KindStr:
		w.WriteString(v.Str())
	case values.KindFloat:
		w.WriteFloat(v.Float())
	case values.KindList:
		w.WriteNum(int64(v.Len()))
		for _, e := range v.List() {
			w.WriteVar(e)
		}
	default:
		fail("unwritable value type %d", v.Kind())
	}
}

// Flush drains the buffer to the underlying stream. Unlike the Write
// methods it returns an ordinary error, since it is called at the frame
// boundary where the failure machinery has already been left.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
