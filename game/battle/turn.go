package battle

import "sort"

// TurnManager determines the execution order of a turn's queue.
type TurnManager interface {
	// Order returns the entries in execution order. The input slice is not modified.
	Order(queue []*QueueEntry, rng RNG) []*QueueEntry
}

// DefaultTurnManager orders by priority, then speed, both descending. Full
// ties are broken uniformly at random: the queue is shuffled before the
// stable sort.
type DefaultTurnManager struct{}

func (DefaultTurnManager) Order(queue []*QueueEntry, rng RNG) []*QueueEntry {
	out := make([]*QueueEntry, len(queue))
	copy(out, queue)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Speed > out[j].Speed
	})
	return out
}
