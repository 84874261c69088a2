package preprocess

import (
	"slices"
	"strings"
)

const (
	FieldChannel     = "channel"
	FieldDate        = "date"
	FieldAdID        = "ad_id"
	FieldAdSetID     = "ad_set_id"
	FieldCampaignID  = "campaign_id"
	FieldCost        = "cost"
	FieldImpressions = "impressions"
	FieldEngagements = "engagements"
	FieldClicks      = "clicks"
	FieldConversions = "conversions"
)

// renames maps column names of platform exports onto the canonical set.
var renames = map[string]string{
	// Facebook Ads Manager export
	"reporting_ends":     FieldDate,
	"amount_spent_(eur)": FieldCost,
	"post_engagement":    FieldEngagements,
	"link_clicks":        FieldClicks,
	"purchases":          FieldConversions,
	// Google Ads export
	"day": FieldDate,

	"adset_id": FieldAdSetID,
}

// dropped columns carry no information for the optimizer.
var dropped = map[string]bool{
	"reporting_starts": true,
	"currency":         true,
}

var metricFields = []string{FieldCost, FieldImpressions, FieldEngagements, FieldClicks, FieldConversions}

// identityOrder lists the columns that identify an option, in output order.
// Required identity fields outside this list follow alphabetically; any
// other column is ignored.
var identityOrder = []string{FieldChannel, FieldCampaignID, FieldAdSetID, FieldAdID}

// NormalizeField lowercases a column name, replaces spaces with underscores
// and maps export-specific names onto canonical ones. It returns "" for
// columns that are dropped.
func NormalizeField(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	if dropped[n] {
		return ""
	}
	if canonical, ok := renames[n]; ok {
		return canonical
	}
	return n
}

func identityLess(a, b string) int {
	ia, ib := slices.Index(identityOrder, a), slices.Index(identityOrder, b)
	switch {
	case ia >= 0 && ib >= 0:
		return ia - ib
	case ia >= 0:
		return -1
	case ib >= 0:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
