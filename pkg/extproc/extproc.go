package extproc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/burrowmoo/burrow/pkg/events"
	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/metrics"
	"github.com/burrowmoo/burrow/pkg/tasks"
	"github.com/burrowmoo/burrow/pkg/values"
)

// DefaultBinDir is the subdirectory command paths resolve under when the
// server is not configured otherwise.
const DefaultBinDir = "executables"

// outputCap bounds the single read taken from each of the child's stdout
// and stderr at completion. Callers rely on this truncation bound.
const outputCap = 1000

var execEnv = []string{"PATH=/bin:/usr/bin"}

var (
	// ErrNoCommand is raised when the argument list is empty.
	ErrNoCommand = errors.New("missing command")
	// ErrInvalidPath is raised for traversal attempts.
	ErrInvalidPath = errors.New("invalid path")
	// ErrDoesNotExist is raised when the resolved file is absent.
	ErrDoesNotExist = errors.New("does not exist")
	// ErrExecFailed is raised for pipe, fork, and exec failures.
	ErrExecFailed = errors.New("exec failed")
)

// waiter owns the three pipe descriptors of one running child and the VM
// task suspended on it, keyed by the child's process id. Every path that
// destroys a waiter closes all three descriptors.
type waiter struct {
	pid int
	in  *os.File
	out *os.File
	err *os.File
	vm  tasks.VM
}

func (w *waiter) closePipes() {
	w.in.Close()
	w.out.Close()
	w.err.Close()
}

// Service launches external processes on behalf of VM tasks and resumes
// each task with the child's exit code and captured output.
type Service struct {
	mu      sync.Mutex
	binDir  string
	waiters map[int]*waiter
	broker  *events.Broker
}

// NewService creates the exec facility and registers its waiter table
// with the scheduler's task enumeration.
func NewService(binDir string, sched *tasks.Scheduler, broker *events.Broker) *Service {
	if binDir == "" {
		binDir = DefaultBinDir
	}
	s := &Service{
		binDir:  binDir,
		waiters: make(map[int]*waiter),
		broker:  broker,
	}
	if sched != nil {
		sched.RegisterQueue(s.Enumerate)
	}
	return s
}

// resolve maps a requested command onto a path under the bin
// subdirectory, rejecting traversal.
func (s *Service) resolve(cmd string) (string, error) {
	if len(cmd) > 1 && cmd[0] == '.' && cmd[1] == '.' {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, cmd)
	}
	if strings.Contains(cmd, "/.") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, cmd)
	}
	path := s.binDir + "/" + strings.TrimPrefix(cmd, "/")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrDoesNotExist, cmd)
	}
	return path, nil
}

// Exec launches args as an external process and suspends vm until the
// child exits. The first element is the command path, resolved under the
// bin subdirectory; the rest are its arguments. The child runs with a
// minimal fixed environment.
func (s *Service) Exec(args []string, vm tasks.VM) error {
	if len(args) == 0 {
		return ErrNoCommand
	}
	path, err := s.resolve(args[0])
	if err != nil {
		metrics.ExecTotal.WithLabelValues("rejected").Inc()
		return err
	}

	execLog := log.WithComponent("exec")

	inR, inW, err := os.Pipe()
	if err != nil {
		execLog.Error().Err(err).Msg("Couldn't create stdin pipe")
		return fmt.Errorf("%w: %v", ErrExecFailed, err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		execLog.Error().Err(err).Msg("Couldn't create stdout pipe")
		return fmt.Errorf("%w: %v", ErrExecFailed, err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		outR.Close()
		outW.Close()
		execLog.Error().Err(err).Msg("Couldn't create stderr pipe")
		return fmt.Errorf("%w: %v", ErrExecFailed, err)
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   append([]string{path}, args[1:]...),
		Env:    execEnv,
		Stdin:  inR,
		Stdout: outW,
		Stderr: errW,
	}
	if err := cmd.Start(); err != nil {
		inR.Close()
		inW.Close()
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		execLog.Error().Err(err).Str("path", path).Msg("Couldn't start child")
		metrics.ExecTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %v", ErrExecFailed, err)
	}

	// Parent keeps only its ends of the pipes.
	inR.Close()
	outW.Close()
	errW.Close()

	pid := cmd.Process.Pid
	w := &waiter{pid: pid, in: inW, out: outR, err: errR, vm: vm}

	s.mu.Lock()
	s.waiters[pid] = w
	s.mu.Unlock()

	metrics.ExecRunning.Inc()
	metrics.ExecTotal.WithLabelValues("started").Inc()
	execLog.Info().Str("path", path).Int("pid", pid).Msg("Executing")
	if s.broker != nil {
		s.broker.Publish(&events.Event{
			Type:     events.EventExecStarted,
			Message:  "external process started",
			Metadata: map[string]string{"path": path, "pid": fmt.Sprint(pid)},
		})
	}

	go func() {
		_ = cmd.Wait()
		s.Completed(pid, cmd.ProcessState.ExitCode())
	}()
	return nil
}

// Completed handles the exit notification for pid: it reads up to 1000
// bytes from each of stdout and stderr in a single read, resumes the
// suspended task with {code, stdout, stderr}, and destroys the waiter.
// Unknown pids (already killed) report false.
func (s *Service) Completed(pid, code int) bool {
	s.mu.Lock()
	w, ok := s.waiters[pid]
	if ok {
		delete(s.waiters, pid)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	buf := make([]byte, outputCap)
	n, _ := w.out.Read(buf)
	stdout := string(buf[:n])
	n, _ = w.err.Read(buf)
	stderr := string(buf[:n])

	result := values.NewList([]values.Var{
		values.NewInt(int64(code)),
		values.NewStr(stdout),
		values.NewStr(stderr),
	})
	w.vm.Resume(result)
	w.closePipes()

	metrics.ExecRunning.Dec()
	metrics.ExecTotal.WithLabelValues("completed").Inc()
	execLog := log.WithComponent("exec")
	execLog.Info().Int("pid", pid).Int("code", code).Msg("Child exited")
	if s.broker != nil {
		s.broker.Publish(&events.Event{
			Type:     events.EventExecCompleted,
			Message:  "external process exited",
			Metadata: map[string]string{"pid": fmt.Sprint(pid), "code": fmt.Sprint(code)},
		})
	}
	return true
}

// Enumerate walks the waiter table for the scheduler. A kill verdict
// closes the pipes and destroys the waiter without resuming the task; the
// orphaned child is reaped when it eventually exits.
func (s *Service) Enumerate(cl tasks.Closure) tasks.EnumAction {
	s.mu.Lock()
	snapshot := make([]*waiter, 0, len(s.waiters))
	for _, w := range s.waiters {
		snapshot = append(snapshot, w)
	}
	s.mu.Unlock()

	for _, w := range snapshot {
		tea := cl(w.vm, "running")
		if tea == tasks.EnumKill {
			s.mu.Lock()
			_, present := s.waiters[w.pid]
			if present {
				delete(s.waiters, w.pid)
			}
			s.mu.Unlock()
			if present {
				w.closePipes()
				metrics.ExecRunning.Dec()
				metrics.ExecTotal.WithLabelValues("killed").Inc()
				if s.broker != nil {
					s.broker.Publish(&events.Event{
						Type:     events.EventExecKilled,
						Message:  "external process waiter killed",
						Metadata: map[string]string{"pid": fmt.Sprint(w.pid)},
					})
				}
			}
		}
		if tea != tasks.EnumContinue {
			return tea
		}
	}
	return tasks.EnumContinue
}

// Running returns the number of live waiters.
func (s *Service) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}
