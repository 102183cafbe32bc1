package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/burrowmoo/burrow/pkg/dbio"
	"github.com/burrowmoo/burrow/pkg/events"
	"github.com/burrowmoo/burrow/pkg/ledger"
	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/metrics"
)

// FlushKind selects what a flush request means. Only AllNow and Panic
// actually write; rate control lives in the scheduler.
type FlushKind int

const (
	FlushIfFull FlushKind = iota
	FlushOneSecond
	FlushAllNow
	FlushPanic
)

type dumpReason int

const (
	dumpShutdown dumpReason = iota
	dumpCheckpoint
	dumpPanic
)

var reasonNames = [...]string{"DUMPING", "CHECKPOINTING", "PANIC-DUMPING"}

// ErrCheckpointInProgress is returned when a checkpoint is requested while
// a previous one is still writing in the background. It is the moral
// equivalent of a fork failure: the caller gets an immediate failure and
// no retry.
var ErrCheckpointInProgress = errors.New("checkpoint already in progress")

const retryInterval = 60 * time.Second

// Flush services a flush request from the scheduler.
func (c *Context) Flush(kind FlushKind) error {
	switch kind {
	case FlushIfFull, FlushOneSecond:
		return nil
	case FlushAllNow:
		return c.dump(dumpCheckpoint)
	case FlushPanic:
		return c.dump(dumpPanic)
	}
	return nil
}

// Checkpoint writes a full snapshot while the server keeps serving.
func (c *Context) Checkpoint() error {
	return c.dump(dumpCheckpoint)
}

// PanicDump writes an emergency snapshot to the fixed .PANIC path. The
// authoritative dump file is never replaced.
func (c *Context) PanicDump() error {
	return c.dump(dumpPanic)
}

// Shutdown waits out any in-flight background checkpoint, then writes the
// final snapshot synchronously, retrying on failure.
func (c *Context) Shutdown() error {
	c.wg.Wait()
	return c.dump(dumpShutdown)
}

func tempName(dumpName string, generation int) string {
	return fmt.Sprintf("%s.#%d#", dumpName, generation)
}

func (c *Context) dump(reason dumpReason) error {
	logger := log.WithComponent("checkpoint")
	reasonName := reasonNames[reason]

	for {
		// Remove previous checkpoint temporary
		os.Remove(tempName(c.cfg.DumpName, c.generation))

		var temp string
		if reason == dumpPanic {
			temp = c.cfg.DumpName + ".PANIC"
		} else {
			c.generation++
			metrics.DumpGeneration.Set(float64(c.generation))
			temp = tempName(c.cfg.DumpName, c.generation)
		}

		logger.Info().Str("reason", reasonName).Str("file", temp).Msg("Dumping")
		c.publish(events.EventCheckpointStarted, "dump started", map[string]string{
			"reason": reasonName,
			"file":   temp,
		})

		rec := ledger.Record{
			ID:         uuid.New().String(),
			Reason:     reasonName,
			Generation: c.generation,
			Path:       temp,
			StartedAt:  time.Now(),
		}

		if reason == dumpCheckpoint && !c.cfg.Unforked {
			return c.checkpointBuffered(temp, rec)
		}

		if c.cfg.ResetCommandHistory != nil {
			c.cfg.ResetCommandHistory()
		}

		timer := metrics.NewTimer()
		openFailed, err := c.dumpTo(temp, reasonName)
		if err == nil {
			if reason != dumpPanic {
				err = c.replaceDump(temp)
			}
			c.finishDump(rec, temp, reason, timer, err)
			return err
		}

		c.finishDump(rec, temp, reason, timer, err)
		switch {
		case openFailed:
			// No retry when the temporary cannot even be opened.
			return err
		case reason == dumpCheckpoint:
			logger.Error().Err(err).Msg("Abandoning checkpoint attempt")
			return err
		case reason == dumpPanic:
			return err
		}
		logger.Error().Err(err).Dur("retry_in", retryInterval).Msg("Waiting and retrying dump")
		c.cfg.Sleep(retryInterval)
	}
}

// dumpTo writes one full snapshot to path with the durability boundary in
// place: fsync before the caller unlinks the old dump and renames.
func (c *Context) dumpTo(path, reasonName string) (openFailed bool, err error) {
	f, err := os.Create(path)
	if err != nil {
		logger := log.WithComponent("checkpoint")
		logger.Error().Err(err).Str("file", path).Msg("Opening temporary dump file")
		return true, err
	}

	w := dbio.NewWriter(f)
	if err := c.writeSnapshot(w, reasonName); err != nil {
		f.Close()
		os.Remove(path)
		return false, err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("%w: flush: %v", dbio.ErrFailed, err)
	}
	// The durability boundary: without this sync, a crash after the
	// rename could leave the old file gone and the new one not on disk.
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("%w: fsync: %v", dbio.ErrFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return false, fmt.Errorf("%w: close: %v", dbio.ErrFailed, err)
	}
	return false, nil
}

func (c *Context) replaceDump(temp string) error {
	os.Remove(c.cfg.DumpName)
	if err := os.Rename(temp, c.cfg.DumpName); err != nil {
		logger := log.WithComponent("checkpoint")
		logger.Error().Err(err).Msg("Renaming temporary dump file")
		return err
	}
	return nil
}

// checkpointBuffered serializes the snapshot to memory in the caller —
// the single-threaded scheduler guarantees a quiescent store, so the
// buffer is the at-the-instant image a forked child would have seen —
// then writes it out in a background goroutine while the server keeps
// serving.
func (c *Context) checkpointBuffered(temp string, rec ledger.Record) error {
	logger := log.WithComponent("checkpoint")

	if !c.writing.CompareAndSwap(false, true) {
		logger.Error().Msg("Checkpoint requested while previous one still writing")
		metrics.CheckpointsTotal.WithLabelValues("CHECKPOINTING", "failure").Inc()
		return ErrCheckpointInProgress
	}

	timer := metrics.NewTimer()

	var buf bytes.Buffer
	w := dbio.NewWriter(&buf)
	err := c.writeSnapshot(w, "CHECKPOINTING")
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		c.writing.Store(false)
		logger.Error().Err(err).Msg("Abandoning checkpoint attempt")
		c.finishDump(rec, temp, dumpCheckpoint, timer, err)
		return err
	}

	// Serving side resumes immediately, like the parent after a fork.
	if c.cfg.ResetCommandHistory != nil {
		c.cfg.ResetCommandHistory()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.writing.Store(false)

		err := writeFileDurable(temp, buf.Bytes())
		if err == nil {
			err = c.replaceDump(temp)
		}
		if err != nil {
			logger.Error().Err(err).Str("file", temp).Msg("Background checkpoint write failed")
			os.Remove(temp)
		}
		c.finishDump(rec, temp, dumpCheckpoint, timer, err)
	}()
	return nil
}

func writeFileDurable(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// finishDump records the outcome in the ledger, metrics, and event bus.
func (c *Context) finishDump(rec ledger.Record, temp string, reason dumpReason, timer *metrics.Timer, err error) {
	logger := log.WithComponent("checkpoint")
	reasonName := reasonNames[reason]

	rec.FinishedAt = time.Now()
	rec.Success = err == nil
	if err != nil {
		rec.Error = err.Error()
	} else {
		final := c.cfg.DumpName
		if reason == dumpPanic {
			final = temp
		}
		if st, statErr := os.Stat(final); statErr == nil {
			rec.Bytes = st.Size()
		}
		logger.Info().Str("reason", reasonName).Str("file", temp).Msg("Dump finished")
	}

	status := "success"
	eventType := events.EventCheckpointCompleted
	if err != nil {
		status = "failure"
		eventType = events.EventCheckpointFailed
	} else if reason == dumpPanic {
		eventType = events.EventPanicDump
	}

	metrics.CheckpointsTotal.WithLabelValues(reasonName, status).Inc()
	if err == nil {
		timer.ObserveDuration(metrics.CheckpointDuration)
		metrics.SnapshotBytes.Set(float64(rec.Bytes))
	}

	if c.cfg.Ledger != nil {
		if ledgerErr := c.cfg.Ledger.Append(rec); ledgerErr != nil {
			logger.Warn().Err(ledgerErr).Msg("Could not record dump in ledger")
		}
	}
	c.publish(eventType, "dump "+status, map[string]string{
		"reason": reasonName,
		"file":   temp,
	})
}
