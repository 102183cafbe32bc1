// Package ledger keeps the durable operational record of dump attempts in
// a bbolt database beside the dump file. Each checkpoint, shutdown dump,
// and panic dump appends one JSON record; the meta bucket caches the size
// and generation of the last success so db_disk_size has a fast path that
// skips the stat call. The ledger never gates persistence: failures here
// are logged and ignored by the checkpointer.
package ledger
