package todo

import (
	"cmp"
	"fmt"
	"slices"
)

// CompareBy returns a three-way comparator over a single field of T using
// the field's natural ordering. Equal fields compare as 0.
func CompareBy[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	}
}

// Reverse inverts a comparator.
func Reverse[T any](c func(a, b T) int) func(a, b T) int {
	return func(a, b T) int {
		return c(b, a)
	}
}

// TaskComparator resolves a field name to a comparator over tasks. Ties on
// the field fall back to createdAt and then id, so the order is total.
func TaskComparator(field Field, desc bool) (func(a, b Task) int, error) {
	var c func(a, b Task) int
	switch field {
	case FieldCreatedAt, "":
		c = CompareBy(func(t Task) int64 { return t.CreatedAt })
	case FieldDescription:
		c = CompareBy(func(t Task) string { return t.Description })
	case FieldDueAt:
		c = CompareBy(func(t Task) string { return t.DueAt })
	case FieldID:
		c = CompareBy(func(t Task) string { return t.ID })
	case FieldComplete:
		c = CompareBy(func(t Task) int {
			if t.Complete {
				return 1
			}
			return 0
		})
	default:
		return nil, fmt.Errorf("%w: cannot sort by %q", ErrUnknownField, field)
	}
	c = withTieBreak(c)
	if desc {
		c = Reverse(c)
	}
	return c, nil
}

// withTieBreak orders tasks that c considers equal by creation time and then
// id, so a store always sorts the same way whatever order List returns.
func withTieBreak(c func(a, b Task) int) func(a, b Task) int {
	return func(a, b Task) int {
		return cmpOr(
			c(a, b),
			cmp.Compare(a.CreatedAt, b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	}
}

// cmpOr returns the first of its arguments that is not the zero value, or
// the zero value. It matches cmp.Or from Go 1.22.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

// Sorted returns a copy of tasks ordered by c. The sort is stable.
func Sorted(tasks []Task, c func(a, b Task) int) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	slices.SortStableFunc(out, c)
	return out
}

// Ordered returns the store's tasks by creation time, oldest first.
func (s *Store) Ordered() []Task {
	return Sorted(s.List(), withTieBreak(CompareBy(func(t Task) int64 { return t.CreatedAt })))
}
