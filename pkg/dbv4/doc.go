/*
Package dbv4 supports loading snapshots in the legacy v4 format.

The v4 format encodes object relationships as intrusive singly-linked
chains: a first-child/next-sibling tree for inheritance and a head/next
list for containment. This package holds the transient shadow table those
objects are read into, the three-phase validator that repairs and checks
the chains, and the upgrade pass that converts everything into the live
store's list-valued representation.

Nothing here survives a load. Once Upgrade has run, the table is released
and the intrusive pointers are gone; the live store is the only
representation the rest of the server ever sees.
*/
package dbv4
