package model

import (
	"time"
)

// DateLayout is the calendar-day format used for visit dates.
const DateLayout = "2006-01-02"

// Today returns the clinic's current calendar day at midnight UTC.
// All queue queries are scoped to this value.
func Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
