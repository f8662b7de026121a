package orchestrator

import (
	"fmt"
)

// Registry holds every named step the runbook can execute.
//
// Registration order is the canonical runbook order reported by [Registry.Names].
// Which steps actually run is decided separately by the name list given to
// [Registry.Sequence], so steps can be disabled without unregistering them.
type Registry struct {
	steps map[string]Step
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step. Names must be unique and actions non-nil.
func (r *Registry) Register(s Step) error {
	if s.Name == "" {
		return fmt.Errorf("step name is required")
	}
	if s.Action == nil {
		return fmt.Errorf("step %s has no action", s.Name)
	}
	if _, ok := r.steps[s.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, s.Name)
	}
	r.steps[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Lookup returns the step registered under name.
func (r *Registry) Lookup(name string) (Step, bool) {
	s, ok := r.steps[name]
	return s, ok
}

// Names returns every registered step name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Resolve maps names to registered steps, preserving order and repeats.
func (r *Registry) Resolve(names []string) ([]Step, error) {
	if len(names) == 0 {
		return nil, ErrEmptySequence
	}
	steps := make([]Step, 0, len(names))
	for _, name := range names {
		s, ok := r.steps[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStep, name)
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// Sequence builds a fresh [Sequence] over the named steps.
func (r *Registry) Sequence(names []string, hooks Hooks) (*Sequence, error) {
	steps, err := r.Resolve(names)
	if err != nil {
		return nil, err
	}
	return NewSequence(steps, hooks), nil
}
