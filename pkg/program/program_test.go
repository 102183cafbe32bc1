package program

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowmoo/burrow/pkg/dbio"
)

func TestTextCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"empty program", nil},
		{"single line", []string{`return "ok";`}},
		{"multi line", []string{"x = 1;", "y = x + 1;", "return y;"}},
		{"leading period needs escaping", []string{".hidden", "..doubled", "normal"}},
	}

	codec := TextCodec{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := dbio.NewWriter(&buf)
			require.NoError(t, dbio.Frame(func() {
				codec.WriteProgram(w, &Program{Lines: tt.lines})
			}))
			require.NoError(t, w.Flush())

			var got *Program
			require.NoError(t, dbio.Frame(func() {
				var err error
				got, err = codec.ReadProgram(dbio.NewReader(&buf), dbio.CurrentVersion, func() string { return "#0:test" })
				require.NoError(t, err)
			}))
			assert.Equal(t, tt.lines, got.Lines)
		})
	}
}

func TestTextCodecTerminator(t *testing.T) {
	var buf bytes.Buffer
	w := dbio.NewWriter(&buf)
	require.NoError(t, dbio.Frame(func() {
		TextCodec{}.WriteProgram(w, &Program{Lines: []string{"a"}})
	}))
	require.NoError(t, w.Flush())
	assert.Equal(t, "a\n.\n", buf.String())
}
