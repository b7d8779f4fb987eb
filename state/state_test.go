package state

import (
	"testing"
)

// recorder tracks hook calls in order.
type recorder struct {
	calls []string
}

func (r *recorder) hook(name string) func() {
	return func() { r.calls = append(r.calls, name) }
}

func TestMachine_InitialState(t *testing.T) {
	sm := NewMachine(Pregame)
	if sm.Current() != Pregame {
		t.Errorf("Expected pregame, got %s", sm.Current())
	}
}

func TestMachine_ChangeStateRunsHooks(t *testing.T) {
	rec := &recorder{}
	sm := NewMachine(Pregame)
	sm.AddTransition(Pregame, Number, nil)
	sm.OnExit(Pregame, rec.hook("exit pregame"))
	sm.OnEnter(Number, rec.hook("enter number"))

	if err := sm.ChangeState(Number); err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}
	if sm.Current() != Number {
		t.Errorf("Expected number, got %s", sm.Current())
	}
	if len(rec.calls) != 2 || rec.calls[0] != "exit pregame" || rec.calls[1] != "enter number" {
		t.Errorf("Unexpected hook order: %v", rec.calls)
	}
}

func TestMachine_BlockedTransition(t *testing.T) {
	rec := &recorder{}
	sm := NewMachine(Number)
	sm.AddTransition(Number, Movement, func() bool { return false })
	sm.OnExit(Number, rec.hook("exit number"))

	if err := sm.ChangeState(Movement); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if err := sm.ChangeState(Refresh); err != ErrTransitionNotAllowed {
		t.Errorf("Unregistered transitions must be rejected, got: %v", err)
	}
	if sm.Current() != Number {
		t.Errorf("Expected state to remain number, got %s", sm.Current())
	}
	if len(rec.calls) != 0 {
		t.Errorf("No hooks should run on a blocked transition, got %v", rec.calls)
	}
}

func TestMachine_NestedChangeFromEnterHook(t *testing.T) {
	sm := NewMachine(Resolution)
	sm.AddTransition(Resolution, Refresh, nil)
	sm.AddTransition(Refresh, GameOver, nil)
	sm.OnEnter(Refresh, func() {
		if err := sm.ChangeState(GameOver); err != nil {
			t.Errorf("nested change failed: %v", err)
		}
	})

	if err := sm.ChangeState(Refresh); err != nil {
		t.Fatal(err)
	}
	if sm.Current() != GameOver {
		t.Errorf("Expected gameover after nested change, got %s", sm.Current())
	}
}

func TestPhase_Running(t *testing.T) {
	for _, p := range []Phase{Number, Movement, Resolution, Refresh} {
		if !p.Running() {
			t.Errorf("%s should be running", p)
		}
	}
	for _, p := range []Phase{Pregame, GameOver} {
		if p.Running() {
			t.Errorf("%s should not be running", p)
		}
	}
}
