package domain

import "time"

// Day returns the calendar date of t as read in t's own location, as
// midnight UTC. Record dates and the "today" of a retention window are
// compared as Days.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
