// Package wizard implements the linear multi-step data-entry flows. Each flow
// is a table of steps; a step owns a pure validation predicate over the form
// and says whether it may be skipped.
package wizard

import "fmt"

// Step is one row of a wizard table. A nil Validate always passes.
type Step[F any] struct {
	Name      string
	Skippable bool
	Validate  func(F) error
}

// Machine walks a fixed step table. It holds no form data of its own.
type Machine[F any] struct {
	steps []Step[F]
	index int
}

// NewMachine creates a machine positioned on the first step. It panics on an empty table.
func NewMachine[F any](steps []Step[F]) *Machine[F] {
	if len(steps) == 0 {
		panic("wizard: empty step table")
	}
	return &Machine[F]{steps: steps}
}

// Current returns the step the machine is on.
func (m *Machine[F]) Current() Step[F] { return m.steps[m.index] }

// Index returns the zero-based position of the current step.
func (m *Machine[F]) Index() int { return m.index }

// Len returns the number of steps in the table.
func (m *Machine[F]) Len() int { return len(m.steps) }

// IsFirst reports whether the machine is on the first step.
func (m *Machine[F]) IsFirst() bool { return m.index == 0 }

// IsLast reports whether the machine is on the last step.
func (m *Machine[F]) IsLast() bool { return m.index == len(m.steps)-1 }

// Names lists the step names in order.
func (m *Machine[F]) Names() []string {
	names := make([]string, len(m.steps))
	for i, s := range m.steps {
		names[i] = s.Name
	}
	return names
}

// Check runs the current step's predicate.
func (m *Machine[F]) Check(form F) error {
	return validate(m.steps[m.index], form)
}

// Advance moves forward when the current step validates. On the last step it
// does nothing and returns nil.
func (m *Machine[F]) Advance(form F) (bool, error) {
	if err := m.Check(form); err != nil {
		return false, err
	}
	if m.IsLast() {
		return false, nil
	}
	m.index++
	return true, nil
}

// Retreat moves back one step; on the first step it does nothing.
func (m *Machine[F]) Retreat() bool {
	if m.IsFirst() {
		return false
	}
	m.index--
	return true
}

// Skip moves forward without validation, only from a skippable step.
func (m *Machine[F]) Skip() bool {
	if !m.steps[m.index].Skippable || m.IsLast() {
		return false
	}
	m.index++
	return true
}

// Goto jumps to the named step if every step before it validates.
func (m *Machine[F]) Goto(name string, form F) error {
	target := -1
	for i, s := range m.steps {
		if s.Name == name {
			target = i
			break
		}
	}
	if target < 0 {
		return fmt.Errorf("unknown step %q", name)
	}
	for i := 0; i < target; i++ {
		if m.steps[i].Skippable {
			continue
		}
		if err := validate(m.steps[i], form); err != nil {
			return err
		}
	}
	m.index = target
	return nil
}

// ValidateAll checks every step in order and returns the first failing one.
func (m *Machine[F]) ValidateAll(form F) (string, error) {
	for _, s := range m.steps {
		if err := validate(s, form); err != nil {
			return s.Name, err
		}
	}
	return "", nil
}

func validate[F any](s Step[F], form F) error {
	if s.Validate == nil {
		return nil
	}
	return s.Validate(form)
}
