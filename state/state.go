package state

import (
	"errors"
)

// Phase identifies one state of a room's round cycle.
type Phase string

const (
	Pregame    Phase = "pregame"
	Number     Phase = "number"
	Movement   Phase = "movement"
	Resolution Phase = "resolution"
	Refresh    Phase = "refresh"
	GameOver   Phase = "gameover"
)

// Running reports whether the phase has a live deadline.
func (p Phase) Running() bool {
	switch p {
	case Number, Movement, Resolution, Refresh:
		return true
	}
	return false
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Machine is a transition-checked phase machine. It is not safe for
// concurrent use; the owning room serialises every call.
type Machine struct {
	current     Phase
	transitions map[Phase]map[Phase]func() bool // fromState -> toState -> condition
	enter       map[Phase]func()
	exit        map[Phase]func()
}

func NewMachine(initial Phase) *Machine {
	return &Machine{
		current:     initial,
		transitions: make(map[Phase]map[Phase]func() bool),
		enter:       make(map[Phase]func()),
		exit:        make(map[Phase]func()),
	}
}

func (m *Machine) Current() Phase {
	return m.current
}

// AddTransition permits from -> to, optionally guarded by condition.
func (m *Machine) AddTransition(from, to Phase, condition func() bool) {
	if _, exists := m.transitions[from]; !exists {
		m.transitions[from] = make(map[Phase]func() bool)
	}
	m.transitions[from][to] = condition
}

func (m *Machine) OnEnter(p Phase, fn func()) { m.enter[p] = fn }
func (m *Machine) OnExit(p Phase, fn func())  { m.exit[p] = fn }

func (m *Machine) CanChange(to Phase) bool {
	conditions, exists := m.transitions[m.current]
	if !exists {
		return false
	}
	condition, exists := conditions[to]
	if !exists {
		return false
	}
	return condition == nil || condition()
}

// ChangeState runs the exit hook of the current phase, switches, then runs
// the enter hook of the new one. Enter hooks may themselves change state.
func (m *Machine) ChangeState(to Phase) error {
	if !m.CanChange(to) {
		return ErrTransitionNotAllowed
	}
	if fn := m.exit[m.current]; fn != nil {
		fn()
	}
	m.current = to
	if fn := m.enter[to]; fn != nil {
		fn()
	}
	return nil
}

// Reset jumps to p without running any hooks.
func (m *Machine) Reset(p Phase) {
	m.current = p
}
