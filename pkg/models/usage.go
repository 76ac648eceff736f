package models

import "time"

// UsageRecord tracks advisory-call consumption for one calendar day. It
// is persisted as a small JSON file and shared across process lifetimes;
// concurrent writers are resolved last-write-wins.
type UsageRecord struct {
	Date            string `json:"date"` // 2006-01-02
	Requests        int    `json:"requests"`
	Insights        int    `json:"insights"`
	Prioritizations int    `json:"prioritization"`
}

// ForDate returns the record if it is stamped with day, or a zeroed
// record for day otherwise. Rolling the date implicitly resets usage.
func (u UsageRecord) ForDate(day time.Time) UsageRecord {
	today := day.Format("2006-01-02")
	if u.Date == today {
		return u
	}
	return UsageRecord{Date: today}
}
