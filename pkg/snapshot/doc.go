/*
Package snapshot loads and writes the whole-world textual snapshot and
runs the checkpoint protocol.

The Context gathers the process-wide persistence state — input and dump
file names, the dump generation counter, the declared input version, and
the intern pool — and owns the dbio stream for the duration of a load or
dump.

# Data flow

	Startup:       file → dbio → reader → validator (→ migrator if v4) → live store
	Steady state:  scheduler → Flush(AllNow) → serialize → fsync → rename
	Shutdown:      synchronous dump with 60s retry on failure
	Panic:         synchronous dump to <dump>.PANIC, never renamed

# Snapshot layout

	** LambdaMOO Database, Format Version <V> **
	<nobjs> <nprogs> 0 <nusers>        (one per line)
	<user objid> × nusers
	<object block> × nobjs             ("#<n>" or "#<n> recycled")
	<program block> × nprogs           ("#<oid>:<vnum>" + program text)
	<task-queue block>
	<active-connections block>

A missing header line means the input predates version headers and is
handled as the legacy v4 family, as is any declared version below
NextGen. Legacy objects are read into the transient dbv4 table, validated
with the chain-walking validator, and upgraded into the live store after
the rest of the file has been consumed; ids are preserved exactly,
recycled slots included.

# Checkpointing

Each non-panic dump writes to the generational temporary <dump>.#g#,
fsyncs, then removes the old dump and renames. The fsync before the
unlink-and-rename is the durability boundary. If anything fails before
the rename, the previous dump remains byte-identical on disk.

Checkpoints do not stop the server. The store is serialized to memory in
the scheduler's own thread of control — the moral equivalent of the
at-fork image a copy-on-write child would see — and a background
goroutine performs the file I/O. Shutdown and panic dumps, and every dump
when Unforked is configured, run synchronously in the caller. A shutdown
dump that fails is retried every 60 seconds; a failed checkpoint is
abandoned and the server keeps running on the previous dump.
*/
package snapshot
