package dbio

import (
	"errors"
	"fmt"
)

// ErrFailed is the sentinel wrapped by every codec failure. Reader and
// writer operations do not return errors; they abandon the whole load or
// dump by unwinding to the nearest Frame, which converts the failure into
// an ordinary error satisfying errors.Is(err, ErrFailed).
var ErrFailed = errors.New("dbio failed")

type codecFailure struct {
	err error
}

func fail(format string, args ...interface{}) {
	panic(codecFailure{fmt.Errorf("%w: "+format, append([]interface{}{ErrFailed}, args...)...)})
}

// Fail raises the codec failure condition from outside the package.
// Collaborator codecs (program, task queue, connections) use it to
// abandon a load or dump the same way a primitive mismatch would.
func Fail(format string, args ...interface{}) {
	fail(format, args...)
}

// Frame runs fn inside a codec failure frame. A failure raised anywhere
// below fn unwinds here and is returned as an error; any other panic is
// re-raised. Nothing above the frame ever observes partial codec state.
func Frame(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(codecFailure)
			if !ok {
				panic(r)
			}
			err = f.err
		}
	}()
	fn()
	return nil
}
