// Package program holds the opaque compiled-verb artifact and its snapshot
// codec. The persistence core only stores and retrieves programs; compiling
// and executing them belongs to the virtual machine. TextCodec is the
// stream representation: raw verb source terminated by a "." line, with a
// doubled leading period escaping literal ones.
package program
