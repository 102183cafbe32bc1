// Package config loads optional YAML server settings: log level and
// format, checkpoint interval, metrics address, the exec bin
// subdirectory, and the unforked-checkpoints switch. Flags given on the
// command line take precedence over file values.
package config
