package reportcache

// Diff compares the cached association set against the desired one and
// returns what to insert and what to delete, leaving the intersection
// untouched. Duplicate keys in desired collapse to one entry. The
// untouched rows keep their timestamps, which is the point: re-saving a
// report with no changes must not rewrite its cache.
func Diff[T any, K comparable](current, desired []T, key func(T) K) (toAdd, toRemove []T) {
	want := make(map[K]T, len(desired))
	order := make([]K, 0, len(desired))
	for _, d := range desired {
		k := key(d)
		if _, ok := want[k]; ok {
			continue
		}
		want[k] = d
		order = append(order, k)
	}

	have := make(map[K]struct{}, len(current))
	for _, c := range current {
		k := key(c)
		if _, ok := have[k]; ok {
			continue
		}
		have[k] = struct{}{}
		if _, ok := want[k]; !ok {
			toRemove = append(toRemove, c)
		}
	}

	for _, k := range order {
		if _, ok := have[k]; !ok {
			toAdd = append(toAdd, want[k])
		}
	}
	return toAdd, toRemove
}
