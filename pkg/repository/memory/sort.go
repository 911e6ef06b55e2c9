package memory

import (
	"slices"
	"time"
)

// sortNewestFirst orders records by creation time descending. Records created
// within the same instant keep a stable order by ID.
func sortNewestFirst[T any](records []T, createdAt func(T) time.Time, id func(T) string) {
	slices.SortStableFunc(records, func(a, b T) int {
		if c := createdAt(b).Compare(createdAt(a)); c != 0 {
			return c
		}
		switch {
		case id(a) > id(b):
			return -1
		case id(a) < id(b):
			return 1
		}
		return 0
	})
}
