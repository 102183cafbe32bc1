package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketDumps = []byte("dumps")
	bucketMeta  = []byte("meta")

	keyLastSize       = []byte("last_size")
	keyLastGeneration = []byte("last_generation")
)

// Record is one dump attempt as remembered by the ledger.
type Record struct {
	ID         string    `json:"id"`
	Reason     string    `json:"reason"`
	Generation int       `json:"generation"`
	Path       string    `json:"path"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Bytes      int64     `json:"bytes"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// Ledger is the durable operational record of dump attempts, kept in a
// bbolt database beside the dump file. It is advisory: the checkpointer
// logs ledger failures and carries on.
type Ledger struct {
	db *bolt.DB
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketDumps, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db}, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append stores one dump record. Successful records also refresh the
// cached size and generation in the meta bucket.
func (l *Ledger) Append(rec Record) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDumps)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := b.Put(key, data); err != nil {
			return err
		}

		if rec.Success {
			meta := tx.Bucket(bucketMeta)
			size := make([]byte, 8)
			binary.BigEndian.PutUint64(size, uint64(rec.Bytes))
			if err := meta.Put(keyLastSize, size); err != nil {
				return err
			}
			gen := make([]byte, 8)
			binary.BigEndian.PutUint64(gen, uint64(rec.Generation))
			return meta.Put(keyLastGeneration, gen)
		}
		return nil
	})
}

// Records returns every dump record in append order.
func (l *Ledger) Records() ([]Record, error) {
	var records []Record
	err := l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDumps)
		return b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	return records, err
}

// LastSize returns the byte size of the last successful dump, or -1 when
// no dump has succeeded yet.
func (l *Ledger) LastSize() int64 {
	size := int64(-1)
	_ = l.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyLastSize); v != nil {
			size = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return size
}

// LastGeneration returns the generation of the last successful dump, or
// zero when no dump has succeeded yet.
func (l *Ledger) LastGeneration() int {
	gen := 0
	_ = l.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyLastGeneration); v != nil {
			gen = int(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return gen
}
