package usage

import "time"

type DailyUsage struct {
	Date   string  `json:"date"`
	Liters float64 `json:"liters"`
}

type NextSupply struct {
	At    time.Time `json:"at"`
	Label string    `json:"label"`
	Hours int       `json:"hours"`
}

// Dashboard is a household's usage summary. HasWater is false, and every
// figure zero, when the user has no water service yet.
type Dashboard struct {
	HasWater                bool         `json:"has_water"`
	WaterID                 string       `json:"water_id,omitempty"`
	WaterUsedThisMonth      float64      `json:"water_used_this_month"`
	WaterUsedThisWeek       float64      `json:"water_used_this_week"`
	WaterUsedLastMonth      float64      `json:"water_used_last_month"`
	WaterUsedThisYear       float64      `json:"water_used_this_year"`
	GuestsThisMonth         float64      `json:"guests_this_month"`
	FinesThisMonth          float64      `json:"fines_this_month"`
	ExtraWaterDaysThisMonth int          `json:"extra_water_days_this_month"`
	EstimatedBill           int64        `json:"estimated_bill"`
	LastMonthBill           int64        `json:"last_month_bill"`
	AverageDailyUsage       float64      `json:"average_daily_usage"`
	PeakDay                 string       `json:"peak_day,omitempty"`
	PeakUsage               float64      `json:"peak_usage"`
	Daily                   []DailyUsage `json:"daily"`
	NextSupply              NextSupply   `json:"next_supply"`
}
