/*
Package dbio is the framed byte-stream codec for the textual snapshot
format.

The format is line-oriented ASCII: every primitive (number, object id,
string, tagged value, framing label) occupies one or more newline-
terminated lines. The reader accepts exactly what the writer emits and
applies no escaping beyond what the value system itself mandates.

# Failure model

The codec never partially commits. Any I/O failure or parse mismatch
raises a single sentinel condition that unwinds to the nearest Frame call,
which is placed at the outermost reader or writer pipeline:

	err := dbio.Frame(func() {
		r := dbio.NewReader(f)
		version := r.ReadHeader()
		n := r.ReadNum()
		...
	})
	if errors.Is(err, dbio.ErrFailed) {
		// the whole load is abandoned
	}

Callers between the codec and the frame see no error values at all, which
keeps the record readers free of error plumbing for a condition that is
never recoverable mid-stream.

# Versions

Version tags the declared format of an input stream. Anything below
NextGen is the legacy v4 family; a stream with no header line at all is
Prehistory and is handled as v4. The reader passes the input version
through to the program codec so older compiled programs decode correctly.
*/
package dbio
