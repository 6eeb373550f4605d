package category

import "cmp"

// mergeSorted merges two ascending-sorted slices into a single ascending
// slice. Both inputs arrive pre-ordered from the store, so a linear merge
// preserves that work instead of re-sorting the concatenation.
func mergeSorted[T cmp.Ordered](a, b []T) []T {
	merged := make([]T, 0, len(a)+len(b))

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)

	return merged
}
