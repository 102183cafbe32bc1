package tasks

import (
	"sync"

	"github.com/burrowmoo/burrow/pkg/values"
)

// VM is a suspended virtual-machine task. The persistence core never
// inspects a task; it only resumes one with a result value.
type VM interface {
	Resume(result values.Var)
}

// EnumAction is the verdict a Closure returns for one task during
// enumeration.
type EnumAction int

const (
	// EnumContinue moves on to the next task.
	EnumContinue EnumAction = iota
	// EnumKill destroys the current task's waiter; the task is not resumed.
	EnumKill
	// EnumStop aborts the walk.
	EnumStop
)

// Closure is applied to each suspended task during enumeration. status is
// a human-readable task state ("running", "suspended", ...).
type Closure func(vm VM, status string) EnumAction

// Enumerator walks one queue of suspended tasks, applying the closure to
// each and honoring its verdict.
type Enumerator func(Closure) EnumAction

// Scheduler is the narrow slice of the task scheduler the persistence
// core interacts with: queue registration and task enumeration. Subsystems
// holding suspended tasks (the exec facility among them) register an
// enumerator so that task listing and killing reach their waiters.
type Scheduler struct {
	mu          sync.Mutex
	enumerators []Enumerator
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// RegisterQueue adds an enumerator for an external queue of suspended
// tasks.
func (s *Scheduler) RegisterQueue(e Enumerator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enumerators = append(s.enumerators, e)
}

// ForEachTask walks every registered queue until a closure returns
// EnumStop.
func (s *Scheduler) ForEachTask(cl Closure) EnumAction {
	s.mu.Lock()
	enums := make([]Enumerator, len(s.enumerators))
	copy(enums, s.enumerators)
	s.mu.Unlock()

	for _, e := range enums {
		if e(cl) == EnumStop {
			return EnumStop
		}
	}
	return EnumContinue
}
