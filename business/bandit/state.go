package bandit

// periodStore keeps one (trials, successes) snapshot per retained period.
// Index 0 is the oldest retained period.
type periodStore struct {
	trials    [][]float64
	successes [][]float64

	// limit caps the retained periods; 0 keeps all
	limit  int
	opened int
}

func newPeriodStore(cutoff int) *periodStore {
	return &periodStore{limit: retained(cutoff)}
}

func (p *periodStore) open(numOptions int) {
	p.trials = append(p.trials, make([]float64, numOptions))
	p.successes = append(p.successes, make([]float64, numOptions))
	p.opened++
	p.prune()
}

func (p *periodStore) len() int {
	return len(p.trials)
}

// latest returns the most recently opened period, or -1.
func (p *periodStore) latest() int {
	return len(p.trials) - 1
}

func (p *periodStore) add(optionID int, trials, successes float64) {
	last := p.latest()
	p.trials[last][optionID] += trials
	p.successes[last][optionID] += successes
}
