package reconciler

import (
	"fmt"

	"github.com/yukikurage/taskboard-web/internal/board"
)

// Phase is the state of one mutation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimistic
	PhaseConfirmed
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOptimistic:
		return "optimistic"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseRolledBack:
		return "rolled_back"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseConfirmed || p == PhaseRolledBack
}

// ErrIllegalTransition is returned when a mutation is driven out of order.
type ErrIllegalTransition struct {
	From, To Phase
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal mutation transition %s -> %s", e.From, e.To)
}

// mutation owns the pre-mutation snapshot of a store. rollback is the only
// transition that writes the snapshot back.
type mutation struct {
	store *board.Store
	phase Phase
	snap  board.Snapshot
}

func newMutation(store *board.Store) *mutation {
	return &mutation{store: store, phase: PhaseIdle}
}

// apply snapshots the store and runs change. A failing change leaves the
// mutation idle; the store methods are atomic so nothing was applied.
func (m *mutation) apply(change func(*board.Store) error) error {
	if m.phase != PhaseIdle {
		return &ErrIllegalTransition{From: m.phase, To: PhaseOptimistic}
	}
	snap := m.store.Snapshot()
	if err := change(m.store); err != nil {
		return err
	}
	m.snap = snap
	m.phase = PhaseOptimistic
	return nil
}

func (m *mutation) confirm() error {
	if m.phase != PhaseOptimistic {
		return &ErrIllegalTransition{From: m.phase, To: PhaseConfirmed}
	}
	m.phase = PhaseConfirmed
	return nil
}

func (m *mutation) rollback() error {
	if m.phase != PhaseOptimistic {
		return &ErrIllegalTransition{From: m.phase, To: PhaseRolledBack}
	}
	m.store.Restore(m.snap)
	m.phase = PhaseRolledBack
	return nil
}
