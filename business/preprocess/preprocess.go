package preprocess

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"adOptimizer/domain"
)

var (
	ErrInvalidInput     = errors.New("invalid preprocessing input")
	ErrInsufficientData = errors.New("insufficient data: no usable records in the retention window")
)

const dateLayout = "2006-01-02"

type Options struct {
	Weights Weights
	// Cutoff is the retention window in days.
	Cutoff int
	// Today anchors the retention window. Zero means now.
	Today time.Time
	// RequiredIdentity lists the identity fields a record must carry.
	// Defaults to ad_id.
	RequiredIdentity []string
	// SkipUnspent drops records without spend.
	SkipUnspent bool
}

type Result struct {
	Options    []domain.Option          `json:"options"`
	Records    []domain.AdRecord        `json:"records"`
	Rejections []domain.RecordRejection `json:"rejections,omitempty"`
	Weights    AppliedWeights           `json:"weights"`
}

type column []float64

func (c column) sum() float64 {
	total := 0.0
	for _, v := range c {
		total += v
	}
	return total
}

// table holds the accepted records column by column.
type table struct {
	dates       []time.Time
	identities  [][]domain.Field
	cost        column
	impressions column
	engagements column
	clicks      column
	conversions column
}

func (t *table) len() int {
	return len(t.dates)
}

func (t *table) metric(name string) *column {
	switch name {
	case FieldCost:
		return &t.cost
	case FieldImpressions:
		return &t.impressions
	case FieldEngagements:
		return &t.engagements
	case FieldClicks:
		return &t.clicks
	default:
		return &t.conversions
	}
}

// Process turns raw ad performance rows into options and canonical records.
// Rows that cannot be used are reported in Result.Rejections.
func Process(raw []domain.RawRecord, opts Options) (Result, error) {
	if opts.Cutoff < 1 {
		return Result{}, fmt.Errorf("%w: cutoff must be at least 1 day, got %d", ErrInvalidInput, opts.Cutoff)
	}
	required := opts.RequiredIdentity
	if len(required) == 0 {
		required = []string{FieldAdID}
	}
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = domain.Day(today)

	var (
		res Result
		t   table
	)
	for row, rec := range raw {
		fields, reason := normalize(rec)
		if reason == "" {
			reason = t.append(fields, required, today, opts.SkipUnspent)
		}
		if reason != "" {
			res.Rejections = append(res.Rejections, domain.RecordRejection{Row: row, Reason: reason})
		}
	}

	res.Weights = AppliedWeights{
		Impression: resolve(opts.Weights.Impression, t.cost, t.impressions),
		Engagement: resolve(opts.Weights.Engagement, t.cost, t.engagements),
		Click:      resolve(opts.Weights.Click, t.cost, t.clicks),
		Conversion: resolve(opts.Weights.Conversion, t.cost, t.conversions),
	}
	successes := t.successes(res.Weights)
	trials := t.trials(successes)

	oldest := today.AddDate(0, 0, -opts.Cutoff)
	index := make(map[string]int)
	for i := range t.len() {
		if t.dates[i].Before(oldest) {
			continue
		}
		key := identityKey(t.identities[i])
		id, ok := index[key]
		if !ok {
			id = len(res.Options)
			index[key] = id
			res.Options = append(res.Options, domain.Option{ID: id, Identity: t.identities[i]})
		}
		res.Records = append(res.Records, domain.AdRecord{
			OptionID:  id,
			Date:      t.dates[i],
			Trials:    trials[i],
			Successes: successes[i],
		})
	}

	if len(res.Records) == 0 {
		return res, ErrInsufficientData
	}
	return res, nil
}

func (t *table) successes(w AppliedWeights) column {
	out := make(column, t.len())
	for _, m := range []struct {
		values column
		weight float64
	}{
		{t.impressions, w.Impression},
		{t.engagements, w.Engagement},
		{t.clicks, w.Click},
		{t.conversions, w.Conversion},
	} {
		if m.weight == 0 {
			continue
		}
		for i, v := range m.values {
			out[i] += v * m.weight
		}
	}
	for i, limit := range t.impressions {
		if limit > 0 && out[i] > limit {
			out[i] = limit
		}
	}
	return out
}

func (t *table) trials(successes column) column {
	out := make(column, t.len())
	for i, cost := range t.cost {
		out[i] = math.Floor(cost) + successes[i] + 1
	}
	return out
}

// append validates one normalized record and adds it to the table. It
// returns the rejection reason, or "" when the record was accepted.
func (t *table) append(rec map[string]any, required []string, today time.Time, skipUnspent bool) string {
	identity := make([]domain.Field, 0, len(identityOrder))
	for name, v := range rec {
		if !slices.Contains(identityOrder, name) && !slices.Contains(required, name) {
			continue
		}
		if s := stringValue(v); s != "" {
			identity = append(identity, domain.Field{Name: name, Value: s})
		}
	}
	slices.SortFunc(identity, func(a, b domain.Field) int { return identityLess(a.Name, b.Name) })

	for _, name := range required {
		if !slices.ContainsFunc(identity, func(f domain.Field) bool { return f.Name == name }) {
			return "missing " + name
		}
	}

	rawDate := stringValue(rec[FieldDate])
	if rawDate == "" {
		return "missing date"
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return fmt.Sprintf("invalid date %q", rawDate)
	}
	if date.After(today) {
		return fmt.Sprintf("date %s is in the future", date.Format(dateLayout))
	}

	var values [5]float64
	for i, name := range metricFields {
		v, err := numericValue(rec[name])
		if err != nil {
			return fmt.Sprintf("non-numeric %s: %v", name, err)
		}
		if v < 0 {
			return fmt.Sprintf("negative %s", name)
		}
		values[i] = v
	}
	if skipUnspent && values[0] == 0 {
		return "no spend"
	}

	t.dates = append(t.dates, date)
	t.identities = append(t.identities, identity)
	for i, name := range metricFields {
		col := t.metric(name)
		*col = append(*col, values[i])
	}
	return ""
}

// normalize renames the record's columns. Two columns mapping onto the same
// name make the record ambiguous; the rejection reason is returned instead.
func normalize(rec domain.RawRecord) (map[string]any, string) {
	out := make(map[string]any, len(rec))
	source := make(map[string]string, len(rec))
	for _, k := range slices.Sorted(maps.Keys(rec)) {
		name := NormalizeField(k)
		if name == "" {
			continue
		}
		if prev, ok := source[name]; ok {
			return nil, fmt.Sprintf("duplicate column %s (%q and %q)", name, prev, k)
		}
		source[name] = k
		out[name] = rec[k]
	}
	return out, ""
}

func identityKey(identity []domain.Field) string {
	var b strings.Builder
	for _, f := range identity {
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(f.Value)
		b.WriteByte(0x1f)
	}
	return b.String()
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func numericValue(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("%v", x)
		}
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%q", s)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return domain.Day(d), nil
}
