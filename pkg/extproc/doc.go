/*
Package extproc coordinates external child processes with suspended VM
tasks.

A task invoking an external command is suspended while the child runs.
The service keeps one waiter per child, keyed by process id, owning the
three pipe descriptors wired to the child's standard streams. When the
child exits, the waiter's task is resumed with a three-element result:
the exit code, up to 1000 bytes of stdout, and up to 1000 bytes of
stderr. The output cap is a single read, not a read-to-EOF loop; callers
rely on the truncation bound.

Command paths resolve under a fixed bin subdirectory. Paths starting with
".." or containing "/." are rejected before any file access, and a
leading "/" is stripped rather than honored. Children run with the
minimal environment PATH=/bin:/usr/bin.

The waiter table registers with the scheduler's task enumeration, so
task listing sees exec waiters as running tasks and a kill request closes
the pipes and drops the waiter without resuming the task. Every path that
destroys a waiter — completion, kill, or a failed launch — closes every
descriptor it allocated.
*/
package extproc
