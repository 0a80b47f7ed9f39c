package forks

import (
	"errors"
	"sort"
)

// ErrConflictingTargets is returned when explicit ids and select-all are
// requested together.
var ErrConflictingTargets = errors.New("do not specify PIDs and --all at the same time")

// Mode captures the listing and selection flags of an invocation.
type Mode struct {
	ViewAll bool
	// Kill is set when a kill was requested, with or without ids.
	Kill      bool
	KillIDs   []int
	SelectAll bool
}

func (m Mode) keepAll() bool {
	return m.Kill || m.SelectAll || m.ViewAll
}

// Filter drops forks without descendant commands and the fork running this
// program, unless the mode asks to see or target everything.
func Filter(forks []Fork, mode Mode) []Fork {
	out := make([]Fork, 0, len(forks))
	for _, f := range forks {
		if mode.keepAll() || (!f.Empty() && !f.Self) {
			out = append(out, f)
		}
	}
	return out
}

// Sort orders forks by ascending id with the self fork last.
func Sort(forks []Fork) {
	sort.SliceStable(forks, func(i, j int) bool {
		a, b := forks[i], forks[j]
		if a.Self != b.Self {
			return b.Self
		}
		return a.ID < b.ID
	})
}

// Select filters and sorts forks for display and target resolution.
func Select(forks []Fork, mode Mode) []Fork {
	out := Filter(forks, mode)
	Sort(out)
	return out
}

// ResolveTargets picks the forks to terminate. With SelectAll every fork is a
// target, otherwise only forks whose id was requested, in fork order.
func ResolveTargets(forks []Fork, mode Mode) ([]Fork, error) {
	if len(mode.KillIDs) > 0 && mode.SelectAll {
		return nil, ErrConflictingTargets
	}
	if mode.SelectAll {
		return append([]Fork(nil), forks...), nil
	}

	wanted := make(map[int]struct{}, len(mode.KillIDs))
	for _, id := range mode.KillIDs {
		wanted[id] = struct{}{}
	}
	var targets []Fork
	for _, f := range forks {
		if _, ok := wanted[f.ID]; ok {
			targets = append(targets, f)
		}
	}
	return targets, nil
}

// MissingTargets returns the requested ids that match no fork, in request
// order without repeats.
func MissingTargets(forks []Fork, ids []int) []int {
	known := make(map[int]struct{}, len(forks))
	for _, f := range forks {
		known[f.ID] = struct{}{}
	}
	seen := make(map[int]struct{}, len(ids))
	var missing []int
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	return missing
}
