package finance

import "time"

// MonthClosure freezes a month's KPIs. Closed months accept no new
// transactions.
type MonthClosure struct {
	MonthKey string    `json:"monthKey"`
	ClosedAt time.Time `json:"closedAt"`
	ClosedBy string    `json:"closedBy"`
	KPIs     KPIs      `json:"kpis"`
}
