package tasks

import (
	"github.com/google/uuid"

	"github.com/burrowmoo/burrow/pkg/dbio"
	"github.com/burrowmoo/burrow/pkg/values"
)

// Record is one forked or suspended task as it persists across a snapshot
// cycle.
type Record struct {
	ID       string
	Owner    values.Objid
	StartsAt int64
	Verb     string
}

// Queue holds the forked and suspended tasks that survive dump and load.
type Queue struct {
	records []Record
}

// NewQueue creates an empty task queue.
func NewQueue() *Queue {
	return &Queue{}
}

// AddForked enqueues a forked task record.
func (q *Queue) AddForked(owner values.Objid, verb string, startsAt int64) Record {
	rec := Record{
		ID:       uuid.New().String(),
		Owner:    owner,
		StartsAt: startsAt,
		Verb:     verb,
	}
	q.records = append(q.records, rec)
	return rec
}

// Records returns the queued task records in order.
func (q *Queue) Records() []Record {
	return q.records
}

// ReadBlock decodes the task-queue block of a snapshot.
func (q *Queue) ReadBlock(r *dbio.Reader) {
	n := r.ReadNum()
	q.records = make([]Record, 0, n)
	for i := int64(0); i < n; i++ {
		rec := Record{
			ID:       r.ReadString(),
			Owner:    r.ReadObjid(),
			StartsAt: r.ReadNum(),
			Verb:     r.ReadStringIntern(),
		}
		q.records = append(q.records, rec)
	}
}

// WriteBlock encodes the task-queue block of a snapshot.
func (q *Queue) WriteBlock(w *dbio.Writer) {
	w.WriteNum(int64(len(q.records)))
	for _, rec := range q.records {
		w.WriteString(rec.ID)
		w.WriteObjid(rec.Owner)
		w.WriteNum(rec.StartsAt)
		w.WriteString(rec.Verb)
	}
}

// Connection is one formerly active connection: the connected player and
// the listening object it arrived through.
type Connection struct {
	Who      values.Objid
	Listener values.Objid
}

// Roster holds the active-connections block of a snapshot.
type Roster struct {
	conns []Connection
}

// NewRoster creates an empty connection roster.
func NewRoster() *Roster {
	return &Roster{}
}

// Add records an active connection.
func (ro *Roster) Add(who, listener values.Objid) {
	ro.conns = append(ro.conns, Connection{Who: who, Listener: listener})
}

// Connections returns the roster in order.
func (ro *Roster) Connections() []Connection {
	return ro.conns
}

// ReadBlock decodes the active-connections block of a snapshot.
func (ro *Roster) ReadBlock(r *dbio.Reader) {
	n := r.ReadNum()
	ro.conns = make([]Connection, 0, n)
	for i := int64(0); i < n; i++ {
		who := r.ReadObjid()
		listener := r.ReadObjid()
		ro.conns = append(ro.conns, Connection{Who: who, Listener: listener})
	}
}

// WriteBlock encodes the active-connections block of a snapshot.
func (ro *Roster) WriteBlock(w *dbio.Writer) {
	w.WriteNum(int64(len(ro.conns)))
	for _, c := range ro.conns {
		w.WriteObjid(c.Who)
		w.WriteObjid(c.Listener)
	}
}
