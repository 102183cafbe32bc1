// Package intern provides the load-time string interning pool.
//
// Object names, verb names, and property names repeat heavily across a
// world snapshot. The reader threads a Pool through the codec so that
// every name read during load shares one backing string. The pool lives
// only for the duration of a load: Open before the first read, Close once
// the store is live. Closing logs hit statistics and drops the table.
package intern
