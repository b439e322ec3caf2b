package quickfill

// KeepHighest folds items to one per group, keeping the item with the
// greatest rank. Groups keep first-seen order and ties keep the earlier
// item.
func KeepHighest[T any, K comparable](items []T, group func(T) K, rank func(T) int) []T {
	pos := make(map[K]int)
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := group(it)
		i, seen := pos[k]
		if !seen {
			pos[k] = len(out)
			out = append(out, it)
			continue
		}
		if rank(it) > rank(out[i]) {
			out[i] = it
		}
	}
	return out
}

// AssignRoundRobin hands items[i] to targets[i % len(targets)]. It reports
// false, assigning nothing, when there are no targets.
func AssignRoundRobin[T, U any](items []T, targets []U, assign func(item T, target U)) bool {
	if len(targets) == 0 {
		return false
	}
	for i, it := range items {
		assign(it, targets[i%len(targets)])
	}
	return true
}
