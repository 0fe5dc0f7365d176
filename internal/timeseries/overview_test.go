package timeseries

import (
	"testing"
	"time"

	"github.com/hivetool/apiaryhub/internal/models"
)

const testThreshold = 3 * time.Hour

func testDevice() *models.Device {
	return &models.Device{ID: "dev_1", Serial: "SN-100"}
}

func TestOverviewNoDatapoints(t *testing.T) {
	ov := Overview(testDevice(), nil, testNow, testThreshold)
	if ov.Online {
		t.Error("device with no datapoints reported online")
	}
	if ov.DailyEntering != 0 || ov.DailyExiting != 0 {
		t.Error("device with no datapoints reported activity")
	}
}

func TestOverviewOnlineThreshold(t *testing.T) {
	tests := []struct {
		name   string
		last   time.Time
		online bool
	}{
		{"just reported", testNow.Add(-time.Minute), true},
		{"at threshold", testNow.Add(-testThreshold), true},
		{"past threshold", testNow.Add(-testThreshold - time.Second), false},
		{"days silent", testNow.Add(-50 * time.Hour), false},
	}

	for _, tt := range tests {
		points := []*models.Datapoint{{Time: tt.last}}
		ov := Overview(testDevice(), points, testNow, testThreshold)
		if ov.Online != tt.online {
			t.Errorf("%s: online = %v, want %v", tt.name, ov.Online, tt.online)
		}
		if !ov.LastSeen.Equal(tt.last) {
			t.Errorf("%s: last seen = %v, want %v", tt.name, ov.LastSeen, tt.last)
		}
	}
}

func TestOverviewOfflineFor(t *testing.T) {
	points := []*models.Datapoint{{Time: testNow.Add(-26*time.Hour - 5*time.Minute)}}
	ov := Overview(testDevice(), points, testNow, testThreshold)
	if ov.Online {
		t.Fatal("device silent for 26h reported online")
	}
	if ov.OfflineFor != "1 day 2 hours 5 minutes" {
		t.Errorf("offline_for = %q, want %q", ov.OfflineFor, "1 day 2 hours 5 minutes")
	}
}

func TestOverviewDailyActivitySums(t *testing.T) {
	points := []*models.Datapoint{
		// Outside the 24h window, ignored.
		{Time: testNow.Add(-30 * time.Hour), RawActivity: models.ActivityVector{X: 100, Y: 100}},
		// Inside the window.
		{Time: testNow.Add(-20 * time.Hour), RawActivity: models.ActivityVector{X: 12, Y: 7}},
		{Time: testNow.Add(-2 * time.Hour), RawActivity: models.ActivityVector{X: 5, Y: 3}},
		{Time: testNow.Add(-time.Minute), RawActivity: models.ActivityVector{X: 1, Y: 2}},
	}

	ov := Overview(testDevice(), points, testNow, testThreshold)
	if ov.DailyEntering != 18 {
		t.Errorf("daily entering = %v, want 18", ov.DailyEntering)
	}
	if ov.DailyExiting != 12 {
		t.Errorf("daily exiting = %v, want 12", ov.DailyExiting)
	}
	if !ov.Online {
		t.Error("device reporting a minute ago should be online")
	}
}
