package scheduling

import (
	"fmt"
	"strings"
)

// Priority is a label from the configured priority ordering.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultPriorityLevels is the canonical ordering. Position is the rank: lower ranks are placed first
// by OptimizeDay.
var DefaultPriorityLevels = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// PriorityOrder maps priority labels to ranks.
//
// Labels that are not part of the ordering get UnknownRank. With the default of 0 they share the
// bucket of the first configured level.
type PriorityOrder struct {
	levels      []Priority
	ranks       map[Priority]int
	unknownRank int
}

// NewPriorityOrder validates levels (non-empty, unique, case-insensitive) and unknownRank
// (0..len(levels)).
func NewPriorityOrder(levels []Priority, unknownRank int) (PriorityOrder, error) {
	if len(levels) == 0 {
		return PriorityOrder{}, fmt.Errorf("%w: priority order is empty", ErrInvalidRequest)
	}
	if unknownRank < 0 || unknownRank > len(levels) {
		return PriorityOrder{}, fmt.Errorf("%w: unknown priority rank %d outside 0..%d", ErrInvalidRequest, unknownRank, len(levels))
	}
	ranks := make(map[Priority]int, len(levels))
	normalized := make([]Priority, 0, len(levels))
	for i, level := range levels {
		p := normalizePriority(level)
		if p == "" {
			return PriorityOrder{}, fmt.Errorf("%w: blank priority at position %d", ErrInvalidRequest, i)
		}
		if _, dup := ranks[p]; dup {
			return PriorityOrder{}, fmt.Errorf("%w: duplicate priority %q", ErrInvalidRequest, p)
		}
		ranks[p] = i
		normalized = append(normalized, p)
	}
	return PriorityOrder{levels: normalized, ranks: ranks, unknownRank: unknownRank}, nil
}

// DefaultPriorityOrder returns the canonical ordering with unknown labels ranked 0.
func DefaultPriorityOrder() PriorityOrder {
	order, _ := NewPriorityOrder(DefaultPriorityLevels, 0)
	return order
}

// Rank returns the position of p, or the configured unknown rank.
func (o PriorityOrder) Rank(p Priority) int {
	if rank, ok := o.ranks[normalizePriority(p)]; ok {
		return rank
	}
	return o.unknownRank
}

// Known reports whether p is one of the configured levels.
func (o PriorityOrder) Known(p Priority) bool {
	_, ok := o.ranks[normalizePriority(p)]
	return ok
}

func (o PriorityOrder) UnknownRank() int {
	return o.unknownRank
}

func (o PriorityOrder) Levels() []Priority {
	return append([]Priority(nil), o.levels...)
}

func normalizePriority(p Priority) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(string(p))))
}
