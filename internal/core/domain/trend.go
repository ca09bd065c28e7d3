package domain

import "time"

// Trend is a per-sector, per-month rollup of vulnerability activity.
// (Category, Month) is unique: the aggregator upserts in place on re-runs.
type Trend struct {
	ID       uint   `json:"-"`
	Category Sector `json:"category"`

	// Month is the calendar month the row summarizes, formatted YYYY-MM (UTC).
	Month string `json:"month"`

	// ChangePercentage is the month-over-month delta. nil when the sector had
	// no activity in either month (no baseline to compare against).
	ChangePercentage *float64 `json:"change_percentage"`

	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// MonthKey formats a timestamp as a trend month key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
