package orchestrator

import (
	"context"
)

// Action is the side effect of a step. Actions are never retried.
type Action func(ctx context.Context) error

// Step is a named unit of the release runbook.
type Step struct {
	Name        string
	Description string
	Action      Action
}

// State is the lifecycle state of a [Sequence].
type State int

// Sequence states. Succeeded and Failed are terminal.
const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ProgressCallback is invoked before each step begins.
//
// index is 1-based; total is the number of steps in the sequence.
type ProgressCallback func(index, total int, step string)

// StepDoneCallback is invoked after each executed step with its result.
type StepDoneCallback func(index int, step string, err error)

// Hooks instrument a sequence run. Both callbacks are optional.
type Hooks struct {
	OnStepStart ProgressCallback
	OnStepDone  StepDoneCallback
}

// Sequence is an ordered list of steps executed exactly once.
//
// Steps run strictly in order; the first failing step stops the run and
// moves the sequence to [StateFailed]. Nothing is rolled back.
type Sequence struct {
	steps   []Step
	hooks   Hooks
	state   State
	current int
	err     error
}

// NewSequence creates an idle sequence over steps.
func NewSequence(steps []Step, hooks Hooks) *Sequence {
	return &Sequence{
		steps:   append([]Step(nil), steps...),
		hooks:   hooks,
		current: -1,
	}
}

// Names returns the step names in execution order.
func (s *Sequence) Names() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name
	}
	return names
}

// State returns the current lifecycle state.
func (s *Sequence) State() State {
	return s.state
}

// Current returns the 0-based index of the running or failed step, or -1
// before the run starts.
func (s *Sequence) Current() int {
	return s.current
}

// Err returns the failure of a [StateFailed] sequence.
func (s *Sequence) Err() error {
	return s.err
}

// Run executes the steps and reports the outcome to done (if non-nil) and
// as the return value. A failure is a [*StepError] naming the step.
//
// A sequence runs once; later calls return [ErrSequenceConsumed] without
// invoking done.
func (s *Sequence) Run(ctx context.Context, done func(error)) error {
	if s.state != StateIdle {
		return ErrSequenceConsumed
	}
	s.state = StateRunning

	total := len(s.steps)
	for i, step := range s.steps {
		s.current = i

		if s.hooks.OnStepStart != nil {
			s.hooks.OnStepStart(i+1, total, step.Name)
		}

		err := step.Action(ctx)

		if s.hooks.OnStepDone != nil {
			s.hooks.OnStepDone(i+1, step.Name, err)
		}

		if err != nil {
			s.state = StateFailed
			s.err = &StepError{Step: step.Name, Index: i, Err: err}
			break
		}
	}

	if s.state == StateRunning {
		s.state = StateSucceeded
	}
	if done != nil {
		done(s.err)
	}
	return s.err
}
