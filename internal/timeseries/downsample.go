// FilePath: internal/timeseries/downsample.go

// Package timeseries reduces a device's datapoint series to chartable
// form: windowed deterministic decimation for graphs and rolling
// activity/online derivation for the overview card.
package timeseries

import (
	"time"

	"github.com/hivetool/apiaryhub/internal/models"
)

// MaxChartPoints bounds the number of datapoints returned for a single
// chart regardless of how long the device has been reporting.
const MaxChartPoints = 1000

// filterDays maps each named time window to its span in days.
var filterDays = map[models.TimeFilter]int{
	models.FilterDay:     1,
	models.FilterWeek:    7,
	models.FilterMonth:   30,
	models.Filter3Months: 90,
	models.Filter6Months: 180,
	models.FilterYear:    365,
	models.Filter2Years:  730,
}

// FromDate computes the inclusive lower bound of a time window.
// FilterInit yields now, an intentionally empty window used by the
// dashboard as its not-yet-loaded sentinel. FilterAllTime and any
// unrecognized code yield the zero time, charting the full series.
func FromDate(filter models.TimeFilter, now time.Time) time.Time {
	if filter == models.FilterInit {
		return now
	}
	if days, ok := filterDays[filter]; ok {
		return now.AddDate(0, 0, -days)
	}
	return time.Time{}
}

// CanonicalFilter collapses every filter code onto the named window it
// actually selects. Unrecognized codes behave like FilterAllTime, so
// they share its identity for caching purposes.
func CanonicalFilter(filter models.TimeFilter) models.TimeFilter {
	if filter == models.FilterInit {
		return models.FilterInit
	}
	if _, ok := filterDays[filter]; ok {
		return filter
	}
	return models.FilterAllTime
}

// Downsample selects the datapoints with time >= the window's lower
// bound and decimates them to at most MaxChartPoints by keeping every
// interval-th element, where interval = ceil(n/MaxChartPoints). The
// result is a subsequence of the input in original order; intermediate
// points are dropped, never merged. Pure and deterministic.
func Downsample(points []*models.Datapoint, filter models.TimeFilter, now time.Time) []*models.Datapoint {
	from := FromDate(filter, now)

	filtered := points[:0:0]
	for _, p := range points {
		if !p.Time.Before(from) {
			filtered = append(filtered, p)
		}
	}

	n := len(filtered)
	if n <= MaxChartPoints {
		return filtered
	}

	interval := (n + MaxChartPoints - 1) / MaxChartPoints
	out := make([]*models.Datapoint, 0, (n+interval-1)/interval)
	for i := 0; i < n; i += interval {
		out = append(out, filtered[i])
	}
	return out
}
