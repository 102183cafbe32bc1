/*
Package log provides structured logging for Burrow using zerolog.

The package keeps the surface deliberately small: a root Logger, an Init
that builds it from the server's settings, and WithComponent for deriving
per-subsystem child loggers. Level filtering lives on the logger itself
rather than in zerolog's process-global level, so tools embedding the
persistence packages (burrow-migrate, tests) can configure logging without
side effects on anything else in the process. Before Init the root logger
is a no-op, which is the right default for library use.

# Usage

	log.Init(log.Config{
		Level:      "info",
		JSONOutput: true,
	})

	loadLog := log.WithComponent("load")
	loadLog.Info().Int("objects", n).Msg("Done reading objects")

Progress markers during load and dump are emitted at Info level every
10,000 objects and every 5,000 verb programs.

# Integration Points

This package integrates with:

  - pkg/snapshot: load, validation, and checkpoint progress
  - pkg/dbv4: legacy validation and upgrade progress
  - pkg/extproc: external process launch and completion
  - pkg/intern: intern pool statistics at close
  - cmd/burrow: server lifecycle, event tap, and metrics endpoint logs
*/
package log
