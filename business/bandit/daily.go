package bandit

import (
	"time"

	"adOptimizer/domain"
)

// AddDailyResults loads canonical records into the bandit. With memory, one
// period per day is opened, oldest first, covering today-cutoff through
// today; records outside that window are ignored. Without memory every
// record is added to the cumulative totals.
func (b *Bandit) AddDailyResults(records []domain.AdRecord, today time.Time) error {
	if b.periods == nil {
		for _, r := range records {
			if err := b.AddResults(r.OptionID, r.Trials, r.Successes); err != nil {
				return err
			}
		}
		return nil
	}

	today = domain.Day(today)
	byDay := make(map[time.Time][]domain.AdRecord, b.cfg.Cutoff+1)
	for _, r := range records {
		day := domain.Day(r.Date)
		byDay[day] = append(byDay[day], r)
	}

	for i := 0; i <= b.cfg.Cutoff; i++ {
		if err := b.AddPeriod(); err != nil {
			return err
		}
		day := today.AddDate(0, 0, -(b.cfg.Cutoff - i))
		for _, r := range byDay[day] {
			if err := b.AddResults(r.OptionID, r.Trials, r.Successes); err != nil {
				return err
			}
		}
	}
	return nil
}
