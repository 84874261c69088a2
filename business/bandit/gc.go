package bandit

// retained is how many periods the store keeps for a cutoff: periods at
// distance cutoff or more weigh 0 under every shape. The open period is
// always kept.
func retained(cutoff int) int {
	return max(cutoff-1, 1)
}

// prune drops the oldest periods beyond the store's limit. Periods are
// compacted in place so a long simulation does not grow the backing arrays.
func (p *periodStore) prune() {
	if p.limit <= 0 {
		return
	}
	drop := len(p.trials) - p.limit
	if drop <= 0 {
		return
	}

	for i := range drop {
		p.trials[i], p.successes[i] = nil, nil
	}
	p.trials = append(p.trials[:0], p.trials[drop:]...)
	p.successes = append(p.successes[:0], p.successes[drop:]...)
}
