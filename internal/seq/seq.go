package seq

// Run is a maximal stretch of consecutive elements sharing one key.
type Run[K comparable, T any] struct {
	Key   K
	Items []T
}

// Partition splits s into the elements matching pred and the rest.
// Both outputs keep the relative order of s.
func Partition[T any](s []T, pred func(T) bool) (matching, rest []T) {
	for _, v := range s {
		if pred(v) {
			matching = append(matching, v)
		} else {
			rest = append(rest, v)
		}
	}
	return matching, rest
}

// Chunk groups consecutive elements of s whose classify keys are equal.
func Chunk[K comparable, T any](s []T, classify func(T) K) []Run[K, T] {
	var runs []Run[K, T]
	for _, v := range s {
		key := classify(v)
		if n := len(runs); n > 0 && runs[n-1].Key == key {
			runs[n-1].Items = append(runs[n-1].Items, v)
			continue
		}
		runs = append(runs, Run[K, T]{Key: key, Items: []T{v}})
	}
	return runs
}
