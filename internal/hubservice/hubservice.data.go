// FilePath: internal/hubservice/hubservice.data.go
package hubservice

import (
	"context"
	"time"

	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
	"github.com/hivetool/apiaryhub/internal/timeseries"
	nuts "github.com/vaudience/go-nuts"
)

// GetChartData returns the downsampled datapoint series of a device for
// the requested time window. Any apiary member may read chart data.
func (s *HubService) GetChartData(ctx context.Context, apiaryID, callerID, deviceID string, filter models.TimeFilter) ([]*models.Datapoint, error) {
	_, _, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}

	device, err := s.Devices.Get(ctx, apiaryID, deviceID)
	if err != nil {
		return nil, err
	}

	// The cache is keyed by the canonical window so an unrecognized
	// filter code shares the all-time entry instead of minting an
	// invisible key that invalidation would miss. The init sentinel is
	// an empty window and not worth a cache slot.
	window := timeseries.CanonicalFilter(filter)
	cacheable := window != models.FilterInit

	if s.Charts != nil && cacheable {
		if points, ok := s.Charts.Get(ctx, device.Serial, window); ok {
			return points, nil
		}
	}

	now := time.Now()
	from := timeseries.FromDate(filter, now)
	points, err := s.Datapoints.GetSince(ctx, device.Serial, from)
	if err != nil {
		return nil, err
	}

	downsampled := timeseries.Downsample(points, filter, now)
	if downsampled == nil {
		downsampled = []*models.Datapoint{}
	}

	if s.Charts != nil && cacheable {
		s.Charts.Set(ctx, device.Serial, window, downsampled)
	}
	return downsampled, nil
}

// GetDeviceOverview derives the online status and 24h activity sums of
// a device.
func (s *HubService) GetDeviceOverview(ctx context.Context, apiaryID, callerID, deviceID string) (*models.DeviceOverview, error) {
	_, _, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}

	device, err := s.Devices.Get(ctx, apiaryID, deviceID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	points, err := s.Datapoints.GetSince(ctx, device.Serial, now.Add(-timeseries.ActivityWindow))
	if err != nil {
		return nil, err
	}

	if len(points) == 0 {
		// Nothing recent; the newest point, however old, still anchors
		// the offline-for display.
		latest, err := s.Datapoints.Latest(ctx, device.Serial)
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
		if latest != nil {
			points = []*models.Datapoint{latest}
		}
	}

	return timeseries.Overview(device, points, now, s.onlineThreshold), nil
}

// IngestDatapoint appends a datapoint to a device's series. Callers are
// the sensor/ML pipeline, authorized by realm role rather than apiary
// membership. Datapoints are never updated or reordered once written.
func (s *HubService) IngestDatapoint(ctx context.Context, point *models.Datapoint) (*models.Datapoint, error) {
	if point.Serial == "" {
		return nil, errors.NewValidationError("datapoint serial is required", nil)
	}

	if _, err := s.Devices.GetBySerial(ctx, point.Serial); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("device does not exist", err)
		}
		return nil, err
	}

	if point.ID == "" {
		point.ID = nuts.NID("dp", 16)
	}
	if point.Time.IsZero() {
		point.Time = time.Now()
	}

	if err := s.Datapoints.Insert(ctx, point); err != nil {
		return nil, err
	}

	if s.Charts != nil {
		s.Charts.Invalidate(ctx, point.Serial)
	}
	return point, nil
}
