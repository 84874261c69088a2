package preprocess

import (
	"fmt"
	"strings"
)

// Weights converts success metrics into cost-equivalent successes. A nil
// weight is derived from the batch as total cost / total metric.
type Weights struct {
	Impression *float64 `json:"impression_weight,omitempty"`
	Engagement *float64 `json:"engagement_weight,omitempty"`
	Click      *float64 `json:"click_weight,omitempty"`
	Conversion *float64 `json:"conversion_weight,omitempty"`
}

// AppliedWeights are the weights actually used for a batch.
type AppliedWeights struct {
	Impression float64 `json:"impression_weight"`
	Engagement float64 `json:"engagement_weight"`
	Click      float64 `json:"click_weight"`
	Conversion float64 `json:"conversion_weight"`
}

func Fixed(v float64) *float64 {
	return &v
}

// WeightsForOptimize weighs the listed metrics automatically and ignores the rest.
func WeightsForOptimize(metrics []string) (Weights, error) {
	w := Weights{
		Impression: Fixed(0),
		Engagement: Fixed(0),
		Click:      Fixed(0),
		Conversion: Fixed(0),
	}
	if len(metrics) == 0 {
		return w, fmt.Errorf("%w: nothing to optimize", ErrInvalidInput)
	}

	for _, m := range metrics {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case FieldImpressions:
			w.Impression = nil
		case FieldEngagements:
			w.Engagement = nil
		case FieldClicks:
			w.Click = nil
		case FieldConversions:
			w.Conversion = nil
		default:
			return w, fmt.Errorf("%w: cannot optimize %q", ErrInvalidInput, m)
		}
	}
	return w, nil
}

func resolve(w *float64, cost, metric column) float64 {
	if w != nil {
		return *w
	}
	total := metric.sum()
	if total == 0 {
		return 0
	}
	return cost.sum() / total
}
