/*
Package metrics provides Prometheus instrumentation for Burrow.

Metrics cover the two hot paths of the persistence core — snapshot load at
startup and checkpoint dumps during steady state — plus the exec facility.
All metrics are registered at package init; Handler returns the promhttp
handler the server mounts on its metrics address.

Naming follows the burrow_ prefix convention:

	burrow_objects_loaded           gauge
	burrow_programs_loaded          gauge
	burrow_load_duration_seconds    histogram
	burrow_validation_repairs_total counter
	burrow_checkpoints_total        counter{reason, status}
	burrow_checkpoint_duration_seconds histogram
	burrow_snapshot_bytes           gauge
	burrow_dump_generation          gauge
	burrow_exec_running             gauge
	burrow_exec_total               counter{outcome}
*/
package metrics
