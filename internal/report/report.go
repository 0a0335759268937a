// Package report shapes stored entries for presentation: per-day groups,
// running totals and hour formatting. It performs no I/O.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/hourlog/internal/constants"
	"github.com/julianstephens/hourlog/internal/models"
)

// DayGroup is every entry logged on one date.
type DayGroup struct {
	Date    string         `json:"date"`
	Entries []models.Entry `json:"entries"`
	Total   float64        `json:"total"`
}

type Report struct {
	Days  []DayGroup `json:"days"`
	Total float64    `json:"total"`
	// ShowGrandTotal is set when more than one date is present.
	ShowGrandTotal bool `json:"show_grand_total"`
}

// GroupByDate buckets entries by date, newest date first. Entries keep
// their input order within a day.
func GroupByDate(entries []models.Entry) []DayGroup {
	index := map[string]int{}
	var groups []DayGroup
	for _, e := range entries {
		i, ok := index[e.Date]
		if !ok {
			i = len(groups)
			index[e.Date] = i
			groups = append(groups, DayGroup{Date: e.Date})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})

	for i := range groups {
		groups[i].Total = TotalHours(groups[i].Entries)
	}
	return groups
}

func Build(entries []models.Entry) Report {
	days := GroupByDate(entries)
	return Report{
		Days:           days,
		Total:          TotalHours(entries),
		ShowGrandTotal: len(days) > 1,
	}
}

// TotalHours sums entry hours without binary float drift.
func TotalHours(entries []models.Entry) float64 {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(decimal.NewFromFloat(e.Hours))
	}
	return sum.InexactFloat64()
}

func SumTotals(totals []models.CustomerTotal) float64 {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(decimal.NewFromFloat(t.Hours))
	}
	return sum.InexactFloat64()
}

// FormatHours renders hours with one decimal place.
func FormatHours(h float64) string {
	return fmt.Sprintf("%.1f", h)
}

// MonthRange returns the first and last date of a YYYY-MM month key.
func MonthRange(key string) (from, to string, err error) {
	start, err := time.Parse(constants.MonthFormat, key)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: %w", key, err)
	}
	end := start.AddDate(0, 1, -1)
	return start.Format(constants.DateFormat), end.Format(constants.DateFormat), nil
}
