/*
Package db is the live object store of the world server.

The store is a dense arena: a slice of object pointers indexed directly by
object id, with nil entries marking recycled slots. Representing the graph
as id → record in a dense vector keeps reference cycles out of the storage
layer entirely; parent and containment relations are expressed as object
ids inside general values, never as pointers between records.

Lifecycle is init → load → serve/checkpoint → shutdown. The snapshot
loader creates the store and hands it to the server; from then on the
virtual machine is the only mutator and the persistence core only reads it
when writing a checkpoint.

Relationship fields carry the invariants the snapshot validator enforces:

  - every non-null object id in any field denotes a live object
  - the parent and location relations are acyclic
  - parent/child and location/contents links are bidirectionally consistent
  - len(Propval) equals the propdef total over the full ancestor chain

The store assumes these invariants; it does not enforce them during
mutation. Validation happens once, at load time.
*/
package db
