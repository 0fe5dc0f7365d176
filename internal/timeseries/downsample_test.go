package timeseries

import (
	"testing"
	"time"

	"github.com/hivetool/apiaryhub/internal/models"
)

// series builds n points ending at end, spaced one minute apart,
// ascending. Each point's X encodes its index for identity checks.
func series(n int, end time.Time) []*models.Datapoint {
	points := make([]*models.Datapoint, n)
	for i := 0; i < n; i++ {
		points[i] = &models.Datapoint{
			Time:        end.Add(-time.Duration(n-1-i) * time.Minute),
			RawActivity: models.ActivityVector{X: float64(i)},
		}
	}
	return points
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestFromDate(t *testing.T) {
	tests := []struct {
		filter models.TimeFilter
		want   time.Time
	}{
		{models.FilterInit, testNow},
		{models.FilterDay, testNow.AddDate(0, 0, -1)},
		{models.FilterWeek, testNow.AddDate(0, 0, -7)},
		{models.FilterMonth, testNow.AddDate(0, 0, -30)},
		{models.Filter3Months, testNow.AddDate(0, 0, -90)},
		{models.Filter6Months, testNow.AddDate(0, 0, -180)},
		{models.FilterYear, testNow.AddDate(0, 0, -365)},
		{models.Filter2Years, testNow.AddDate(0, 0, -730)},
		{models.FilterAllTime, time.Time{}},
		{models.TimeFilter("garbage"), time.Time{}},
	}

	for _, tt := range tests {
		if got := FromDate(tt.filter, testNow); !got.Equal(tt.want) {
			t.Errorf("FromDate(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestCanonicalFilter(t *testing.T) {
	tests := []struct {
		filter models.TimeFilter
		want   models.TimeFilter
	}{
		{models.FilterInit, models.FilterInit},
		{models.FilterDay, models.FilterDay},
		{models.Filter2Years, models.Filter2Years},
		{models.FilterAllTime, models.FilterAllTime},
		{models.TimeFilter(""), models.FilterAllTime},
		{models.TimeFilter("garbage"), models.FilterAllTime},
	}

	for _, tt := range tests {
		if got := CanonicalFilter(tt.filter); got != tt.want {
			t.Errorf("CanonicalFilter(%q) = %q, want %q", tt.filter, got, tt.want)
		}
	}
}

func TestDownsampleEmptySeries(t *testing.T) {
	for _, filter := range []models.TimeFilter{models.FilterAllTime, models.FilterDay, models.FilterInit} {
		if got := Downsample(nil, filter, testNow); len(got) != 0 {
			t.Errorf("Downsample(nil, %q) returned %d points, want 0", filter, len(got))
		}
	}
}

func TestDownsampleInitYieldsEmptyWindow(t *testing.T) {
	points := series(500, testNow.Add(-time.Second))
	if got := Downsample(points, models.FilterInit, testNow); len(got) != 0 {
		t.Errorf("init filter returned %d points, want 0", len(got))
	}
}

func TestDownsampleIdentityUpToLimit(t *testing.T) {
	points := series(MaxChartPoints, testNow)
	got := Downsample(points, models.FilterAllTime, testNow)
	if len(got) != MaxChartPoints {
		t.Fatalf("got %d points, want %d", len(got), MaxChartPoints)
	}
	for i, p := range got {
		if p != points[i] {
			t.Fatalf("point %d differs from input, want identity below limit", i)
		}
	}
}

func TestDownsampleDecimation(t *testing.T) {
	// 2500 in-range points: interval = ceil(2500/1000) = 3, output is
	// indices 0, 3, ..., 2499 for a length of 834.
	points := series(2500, testNow)
	got := Downsample(points, models.FilterAllTime, testNow)
	if len(got) != 834 {
		t.Fatalf("got %d points, want 834", len(got))
	}
	for i, p := range got {
		if want := float64(i * 3); p.RawActivity.X != want {
			t.Fatalf("output[%d] has index %v, want %v", i, p.RawActivity.X, want)
		}
	}
}

func TestDownsampleBound(t *testing.T) {
	for _, n := range []int{1, 999, 1000, 1001, 2000, 10007} {
		got := Downsample(series(n, testNow), models.FilterAllTime, testNow)
		if len(got) > MaxChartPoints {
			t.Errorf("n=%d: output %d exceeds %d", n, len(got), MaxChartPoints)
		}
	}
}

func TestDownsampleDeterministic(t *testing.T) {
	points := series(3777, testNow)
	first := Downsample(points, models.FilterAllTime, testNow)
	second := Downsample(points, models.FilterAllTime, testNow)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("output differs at %d across identical calls", i)
		}
	}
}

func TestDownsampleWindowFilter(t *testing.T) {
	// Half the points fall inside the one-day window.
	n := 2880 // two days at one per minute
	points := series(n, testNow)
	got := Downsample(points, models.FilterDay, testNow)

	// 1441 points are within 24h inclusive; interval = 2 keeps 721.
	if len(got) != 721 {
		t.Fatalf("got %d points, want 721", len(got))
	}
	from := testNow.AddDate(0, 0, -1)
	for _, p := range got {
		if p.Time.Before(from) {
			t.Fatalf("point at %v is outside the window", p.Time)
		}
	}
}

func TestDownsamplePreservesOrder(t *testing.T) {
	got := Downsample(series(5000, testNow), models.FilterAllTime, testNow)
	for i := 1; i < len(got); i++ {
		if got[i].Time.Before(got[i-1].Time) {
			t.Fatalf("output out of order at %d", i)
		}
	}
}
