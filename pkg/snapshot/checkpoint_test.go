package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowmoo/burrow/pkg/dbio"
	"github.com/burrowmoo/burrow/pkg/ledger"
	"github.com/burrowmoo/burrow/pkg/tasks"
)

// flakyQueue fails its first n writes the way a real collaborator codec
// would: by raising the dbio failure condition.
type flakyQueue struct {
	failures int
}

func (q *flakyQueue) ReadBlock(r *dbio.Reader) {
	_ = r.ReadNum()
}

func (q *flakyQueue) WriteBlock(w *dbio.Writer) {
	if q.failures > 0 {
		q.failures--
		dbio.Fail("simulated task queue failure")
	}
	w.WriteNum(0)
}

func TestCheckpointGenerations(t *testing.T) {
	dir := t.TempDir()
	ctx := newTestContext(t, dir, "")
	ctx.store = buildWorld()

	require.NoError(t, ctx.Flush(FlushAllNow))
	assert.Equal(t, 1, ctx.Generation())
	assert.FileExists(t, filepath.Join(dir, "world.db"))
	assert.NoFileExists(t, filepath.Join(dir, "world.db.#1#"), "temporary renamed away")

	require.NoError(t, ctx.Flush(FlushAllNow))
	assert.Equal(t, 2, ctx.Generation())
	assert.NoFileExists(t, filepath.Join(dir, "world.db.#2#"))
}

func TestPanicDumpNeverRenames(t *testing.T) {
	dir := t.TempDir()
	ctx := newTestContext(t, dir, "")
	ctx.store = buildWorld()

	require.NoError(t, ctx.Flush(FlushAllNow))
	before := readFile(t, filepath.Join(dir, "world.db"))
	gen := ctx.Generation()

	require.NoError(t, ctx.Flush(FlushPanic))
	assert.FileExists(t, filepath.Join(dir, "world.db.PANIC"))
	assert.Equal(t, gen, ctx.Generation(), "panic dumps take no generation")
	assert.Equal(t, before, readFile(t, filepath.Join(dir, "world.db")),
		"the authoritative dump is untouched")
	// The panic image itself is a loadable snapshot
	assert.Equal(t, before, readFile(t, filepath.Join(dir, "world.db.PANIC")))
}

func TestFailedCheckpointKeepsOldDump(t *testing.T) {
	dir := t.TempDir()
	ctx := newTestContext(t, dir, "")
	ctx.store = buildWorld()

	require.NoError(t, ctx.Flush(FlushAllNow))
	before := readFile(t, filepath.Join(dir, "world.db"))

	ctx.cfg.TaskQueue = &flakyQueue{failures: 1}
	err := ctx.Flush(FlushAllNow)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbio.ErrFailed)

	assert.Equal(t, before, readFile(t, filepath.Join(dir, "world.db")),
		"failed checkpoint leaves the previous dump byte-identical")
	assert.NoFileExists(t, filepath.Join(dir, "world.db.#2#"),
		"failed temporary removed")
}

func TestShutdownRetriesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.db")
	require.NoError(t, os.WriteFile(input, nil, 0644))

	var slept []time.Duration
	queue := &flakyQueue{failures: 1}
	ctx, err := New(Config{
		InputName:   input,
		DumpName:    filepath.Join(dir, "world.db"),
		Unforked:    true,
		TaskQueue:   queue,
		Connections: tasks.NewRoster(),
		Sleep:       func(d time.Duration) { slept = append(slept, d) },
	})
	require.NoError(t, err)
	ctx.store = buildWorld()

	require.NoError(t, ctx.Shutdown())
	require.Len(t, slept, 1, "one failure, one retry wait")
	assert.Equal(t, 60*time.Second, slept[0])
	assert.FileExists(t, filepath.Join(dir, "world.db"))
	assert.Equal(t, 2, ctx.Generation(), "the retry took a fresh generation")
}

func TestBufferedCheckpoint(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.db")
	require.NoError(t, os.WriteFile(input, nil, 0644))

	resets := 0
	ctx, err := New(Config{
		InputName:           input,
		DumpName:            filepath.Join(dir, "world.db"),
		TaskQueue:           tasks.NewQueue(),
		Connections:         tasks.NewRoster(),
		ResetCommandHistory: func() { resets++ },
	})
	require.NoError(t, err)
	ctx.store = buildWorld()

	require.NoError(t, ctx.Flush(FlushAllNow))
	assert.Equal(t, 1, resets, "serving side resumes once the image is sealed")
	ctx.wg.Wait()

	require.FileExists(t, filepath.Join(dir, "world.db"))

	// The background-written image loads back to the same world
	ctx2, err := New(Config{
		InputName:   filepath.Join(dir, "world.db"),
		DumpName:    filepath.Join(dir, "world2.db"),
		Unforked:    true,
		TaskQueue:   tasks.NewQueue(),
		Connections: tasks.NewRoster(),
	})
	require.NoError(t, err)
	require.NoError(t, ctx2.Load())
	assertStoresEqual(t, ctx.store, ctx2.Store())
}

func TestBufferedCheckpointAbandonsOnSerializeFailure(t *testing.T) {
	dir := t.TempDir()
	ctx := newTestContext(t, dir, "")
	ctx.cfg.Unforked = false
	ctx.cfg.TaskQueue = &flakyQueue{failures: 1}
	ctx.store = buildWorld()

	err := ctx.Flush(FlushAllNow)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "world.db"))
	assert.False(t, ctx.writing.Load(), "writer slot released after failure")
}

func TestDumpOpenFailureDoesNotRetry(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.db")
	require.NoError(t, os.WriteFile(input, nil, 0644))

	slept := 0
	ctx, err := New(Config{
		InputName:   input,
		DumpName:    filepath.Join(dir, "missing-subdir", "world.db"),
		Unforked:    true,
		TaskQueue:   tasks.NewQueue(),
		Connections: tasks.NewRoster(),
		Sleep:       func(time.Duration) { slept++ },
	})
	require.NoError(t, err)
	ctx.store = buildWorld()

	require.Error(t, ctx.Shutdown())
	assert.Zero(t, slept, "an unopenable temporary is not retried")
}

func TestDiskSize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.db")
	require.NoError(t, os.WriteFile(input, []byte("0123456789"), 0644))

	ctx, err := New(Config{
		InputName:   input,
		DumpName:    filepath.Join(dir, "world.db"),
		Unforked:    true,
		TaskQueue:   tasks.NewQueue(),
		Connections: tasks.NewRoster(),
	})
	require.NoError(t, err)
	ctx.store = buildWorld()

	assert.Equal(t, int64(10), ctx.DiskSize(), "input file is authoritative before any dump")

	require.NoError(t, ctx.Flush(FlushAllNow))
	st, err := os.Stat(filepath.Join(dir, "world.db"))
	require.NoError(t, err)
	assert.Equal(t, st.Size(), ctx.DiskSize(), "dump becomes authoritative once a generation succeeds")
}

func TestCheckpointLedgerRecords(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.db")
	require.NoError(t, os.WriteFile(input, nil, 0644))

	led, err := ledger.Open(filepath.Join(dir, "world.db.ledger"))
	require.NoError(t, err)
	defer led.Close()

	queue := &flakyQueue{failures: 1}
	ctx, err := New(Config{
		InputName:   input,
		DumpName:    filepath.Join(dir, "world.db"),
		Unforked:    true,
		TaskQueue:   queue,
		Connections: tasks.NewRoster(),
		Ledger:      led,
	})
	require.NoError(t, err)
	ctx.store = buildWorld()

	require.Error(t, ctx.Flush(FlushAllNow))
	require.NoError(t, ctx.Flush(FlushAllNow))

	records, err := led.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Success)
	assert.Contains(t, records[0].Error, "simulated task queue failure")
	assert.True(t, records[1].Success)
	assert.Equal(t, 2, records[1].Generation)
	assert.Positive(t, records[1].Bytes)
	assert.Equal(t, records[1].Bytes, ctx.DiskSize(), "ledger fast path serves db_disk_size")
}
