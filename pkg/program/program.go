package program

import (
	"strings"

	"github.com/burrowmoo/burrow/pkg/dbio"
)

// Program is a compiled verb body. The persistence core stores and
// retrieves programs without inspecting them; the canonical representation
// here is the verb source, one line per element.
type Program struct {
	Lines []string
}

// Codec reads and writes verb programs within a snapshot stream.
type Codec interface {
	// ReadProgram decodes one program. version is the declared version of
	// the input stream, so older programs decode correctly; name yields a
	// printable verb designation for diagnostics.
	ReadProgram(r *dbio.Reader, version dbio.Version, name func() string) (*Program, error)

	// WriteProgram encodes one program.
	WriteProgram(w *dbio.Writer, p *Program)
}

// TextCodec stores program text verbatim, terminated by a line holding a
// single period. Program lines that begin with a period are escaped by
// doubling it on disk.
type TextCodec struct{}

func (TextCodec) ReadProgram(r *dbio.Reader, version dbio.Version, name func() string) (*Program, error) {
	_ = version
	p := &Program{}
	for {
		line := r.ReadString()
		if line == "." {
			return p, nil
		}
		if strings.HasPrefix(line, ".") {
			line = line[1:]
		}
		p.Lines = append(p.Lines, line)
	}
}

func (TextCodec) WriteProgram(w *dbio.Writer, p *Program) {
	for _, line := range p.Lines {
		if strings.HasPrefix(line, ".") {
			w.WriteString("." + line)
		} else {
			w.WriteString(line)
		}
	}
	w.WriteString(".")
}
