// Package tasks is the persistence core's narrow view of the task
// scheduler: suspended-task resumption, queue enumeration for listing and
// killing, and the snapshot blocks for the forked-task queue and the list
// of formerly active connections. The full scheduler lives elsewhere in
// the server; everything here is the contract it shares with persistence.
package tasks
