package model

import (
	"fmt"
	"strconv"
	"strings"
)

type PriorityKind uint8

const (
	NoPriorityKind PriorityKind = iota
	NumberPriorityKind
	StringPriorityKind
)

// Priority is an explicit sibling ordering key.
// Ordering: no priority < numeric priorities (ascending) < string priorities (lexicographic).
type Priority struct {
	Kind   PriorityKind
	Number float64
	Text   string
}

// NoPriority is the zero Priority.
var NoPriority = Priority{}

// NumberPriority creates a numeric Priority.
func NumberPriority(n float64) Priority {
	return Priority{Kind: NumberPriorityKind, Number: n}
}

// StringPriority creates a string Priority.
func StringPriority(s string) Priority {
	return Priority{Kind: StringPriorityKind, Text: s}
}

// PriorityOf converts a plain value (nil, number or string) to a Priority.
func PriorityOf(v interface{}) (Priority, error) {
	if v == nil {
		return NoPriority, nil
	}
	if s, ok := v.(string); ok {
		return StringPriority(s), nil
	}

	n, ok := toFloat(v)
	if !ok {
		return NoPriority, fmt.Errorf("priority: unsupported type %T", v)
	}

	return NumberPriority(n), nil
}

// IsZero returns true if no priority is set.
func (p Priority) IsZero() bool {
	return p.Kind == NoPriorityKind
}

// Compare returns -1, 0 or 1.
func (p Priority) Compare(o Priority) int {
	if p.Kind != o.Kind {
		if p.Kind < o.Kind {
			return -1
		}
		return 1
	}

	switch p.Kind {
	case NumberPriorityKind:
		switch {
		case p.Number < o.Number:
			return -1
		case p.Number > o.Number:
			return 1
		}
	case StringPriorityKind:
		return strings.Compare(p.Text, o.Text)
	}

	return 0
}

// Export returns the plain value (nil, float64 or string).
func (p Priority) Export() interface{} {
	switch p.Kind {
	case NumberPriorityKind:
		return p.Number
	case StringPriorityKind:
		return p.Text
	}

	return nil
}

// String implements the stringer interface.
func (p Priority) String() string {
	switch p.Kind {
	case NumberPriorityKind:
		return strconv.FormatFloat(p.Number, 'g', -1, 64)
	case StringPriorityKind:
		return strconv.Quote(p.Text)
	}

	return "none"
}

// ParsePriority parses a CLI priority: empty is none, numbers are numeric, anything else is a string.
func ParsePriority(s string) Priority {
	if s == "" {
		return NoPriority
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberPriority(n)
	}

	return StringPriority(s)
}

// CompareChildren orders siblings by priority, then by key.
func CompareChildren(pa Priority, ka string, pb Priority, kb string) int {
	if c := pa.Compare(pb); c != 0 {
		return c
	}

	return strings.Compare(ka, kb)
}
