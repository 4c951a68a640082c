package usecase

// Order-preserving set operations over product ids.

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// difference returns the ids of a not present in b.
func difference(a, b []int64) []int64 {
	drop := toSet(b)
	out := make([]int64, 0, len(a))
	for _, id := range a {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func intersect(a, b []int64) []int64 {
	keep := toSet(b)
	out := make([]int64, 0, len(a))
	for _, id := range a {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func union(a, b []int64) []int64 {
	return unique(append(append(make([]int64, 0, len(a)+len(b)), a...), b...))
}
