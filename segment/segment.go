// Package segment splits ordered block sequences into boundary-led runs.
package segment

// Split groups items into contiguous runs, each starting at an item for
// which boundary returns true. Items before the first boundary have no
// owning run and are dropped.
func Split[T any](items []T, boundary func(T) bool) [][]T {
	i := 0
	for i < len(items) && !boundary(items[i]) {
		i++
	}

	var runs [][]T
	for i < len(items) {
		run := []T{items[i]}
		for i++; i < len(items) && !boundary(items[i]); i++ {
			run = append(run, items[i])
		}
		runs = append(runs, run)
	}
	return runs
}
