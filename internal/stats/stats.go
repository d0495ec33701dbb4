// Package stats computes the dashboard visitor counts.
package stats

import (
	"log/slog"
	"time"

	"github.com/mmynk/checkin/internal/models"
)

// Dashboard holds cumulative counts: today is included in this week,
// this week in this month, and this month in total.
type Dashboard struct {
	Total     int `json:"total_visitors"`
	Today     int `json:"today_visitors"`
	ThisWeek  int `json:"this_week_visitors"`
	ThisMonth int `json:"this_month_visitors"`
}

// Compute counts visitors by check-in date relative to now. Weeks start on
// Monday. Dates are compared on the calendar day of each timestamp, and now
// is read in its own location.
func Compute(visitors []models.Visitor, now time.Time) Dashboard {
	today := models.Date(now)
	weekStart := WeekStart(today)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	d := Dashboard{Total: len(visitors)}
	for _, v := range visitors {
		date, err := models.CheckinDate(v.CheckinTime)
		if err != nil {
			slog.Warn("Skipping visitor with unparseable check-in time", "visitor_id", v.ID, "checkin_time", v.CheckinTime)
			continue
		}
		if date.Equal(today) {
			d.Today++
		}
		if !date.Before(weekStart) {
			d.ThisWeek++
		}
		if !date.Before(monthStart) {
			d.ThisMonth++
		}
	}
	return d
}

// WeekStart returns the Monday on or before date.
func WeekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}
