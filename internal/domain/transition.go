package domain

import "fmt"

// TransitionPolicy decides whether an entry may move from one status to
// another. A nil error allows the change.
type TransitionPolicy func(from, to EntryStatus) error

// AllowAllTransitions permits any status to move to any status.
func AllowAllTransitions(_, _ EntryStatus) error {
	return nil
}

// NewTransitionTable builds a policy that only allows the listed moves.
// Moving to the same status is always allowed.
func NewTransitionTable(allowed map[EntryStatus][]EntryStatus) TransitionPolicy {
	table := make(map[EntryStatus]map[EntryStatus]bool, len(allowed))
	for from, targets := range allowed {
		set := make(map[EntryStatus]bool, len(targets))
		for _, to := range targets {
			set[to] = true
		}
		table[from] = set
	}

	return func(from, to EntryStatus) error {
		if from == to || table[from][to] {
			return nil
		}
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
}

// ForwardOnlyTransitions never lets an entry go back to PENDING or leave
// CANCELLED.
var ForwardOnlyTransitions = NewTransitionTable(map[EntryStatus][]EntryStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
})
