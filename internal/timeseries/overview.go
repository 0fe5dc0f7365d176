// FilePath: internal/timeseries/overview.go
package timeseries

import (
	"fmt"
	"strings"
	"time"

	"github.com/hivetool/apiaryhub/internal/models"
)

// ActivityWindow is the span over which entering/exiting counts are
// accumulated for the overview card.
const ActivityWindow = 24 * time.Hour

// Overview derives the device status card from an already-fetched
// series. A device is online if its newest datapoint is within
// onlineThreshold of now; the threshold is configuration, not a
// literal, since deployments disagree on what "recently seen" means.
func Overview(device *models.Device, points []*models.Datapoint, now time.Time, onlineThreshold time.Duration) *models.DeviceOverview {
	overview := &models.DeviceOverview{
		DeviceID: device.ID,
		Serial:   device.Serial,
	}

	if len(points) == 0 {
		return overview
	}

	// Points are stored and returned in ascending time order.
	last := points[len(points)-1]
	overview.LastSeen = last.Time

	gap := now.Sub(last.Time)
	overview.Online = gap <= onlineThreshold
	if !overview.Online {
		overview.OfflineFor = formatOffline(gap)
	}

	cutoff := now.Add(-ActivityWindow)
	for _, p := range points {
		if p.Time.Before(cutoff) {
			continue
		}
		overview.DailyEntering += p.RawActivity.X
		overview.DailyExiting += p.RawActivity.Y
	}

	return overview
}

func formatOffline(gap time.Duration) string {
	total := int(gap.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
