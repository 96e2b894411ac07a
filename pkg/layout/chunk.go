// Package layout holds small helpers for arranging rendered items.
package layout

// Chunk splits s into consecutive groups of at most size elements,
// preserving order. The last group may be shorter. A size of zero or less
// yields an empty result. The groups never share memory with s.
func Chunk[T any](s []T, size int) [][]T {
	if size <= 0 || len(s) == 0 {
		return [][]T{}
	}

	groups := make([][]T, 0, (len(s)+size-1)/size)
	for start := 0; start < len(s); start += size {
		end := min(start+size, len(s))
		group := make([]T, end-start)
		copy(group, s[start:end])
		groups = append(groups, group)
	}
	return groups
}
