package domain

import "time"

// RawRecord is one row of ad performance as received from a JSON body or a
// CSV export, before field names are normalized. Values are strings, float64,
// json.Number or ints depending on the transport.
type RawRecord map[string]any

// Field is one part of an option's identity, e.g. {"ad_id", "1234"}.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Option is a budget-allocatable entity (ad, ad set, ...). ID is the 0-based
// index assigned in first-seen order.
type Option struct {
	ID       int     `json:"id"`
	Identity []Field `json:"identity"`
}

func (o Option) Get(name string) string {
	for _, f := range o.Identity {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// AdRecord is the canonical per-record schema consumed by the bandit.
type AdRecord struct {
	OptionID  int       `json:"option_id"`
	Date      time.Time `json:"date"`
	Trials    float64   `json:"trials"`
	Successes float64   `json:"successes"`
}

// RecordRejection reports a raw record that could not be used.
type RecordRejection struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// OptionResult is one entry of the output mapping. Exactly one of Share or
// Status is set, depending on the requested output.
type OptionResult struct {
	Option
	Share  *float64 `json:"share,omitempty"`
	Status *bool    `json:"status,omitempty"`
}

// StatusLabel renders Status the way ad platforms expect it.
func (r OptionResult) StatusLabel() string {
	if r.Status == nil {
		return ""
	}
	if *r.Status {
		return StatusActive
	}
	return StatusPaused
}

// Posterior is an option's Beta belief, reported on debug requests.
type Posterior struct {
	OptionID int     `json:"option_id"`
	Alpha    float64 `json:"alpha"`
	Beta     float64 `json:"beta"`
	Mean     float64 `json:"mean"`
}

type OptimizationResult struct {
	Results       []OptionResult     `json:"results"`
	ChannelShares map[string]float64 `json:"channel_shares,omitempty"`
	Rejections    []RecordRejection  `json:"rejections,omitempty"`
	Posteriors    []Posterior        `json:"posteriors,omitempty"`
}
