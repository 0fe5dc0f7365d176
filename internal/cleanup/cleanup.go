package cleanup

import (
	"context"

	"github.com/hivetool/apiaryhub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// CleanupService coordinates deletion of hierarchical data. Apiary
// rows, members and devices live in the app database; datapoint series
// live in the time-series database keyed by serial. The two deletions
// are independent operations with no cross-database atomicity: a crash
// in between leaves an orphaned series, which is logged and accepted,
// never retried.
type CleanupService struct {
	apiaries   repository.ApiaryRepository
	devices    repository.DeviceRepository
	datapoints repository.DatapointRepository
	events     *nuts.EventEmitter
}

// New creates a new CleanupService
func New(
	apiaries repository.ApiaryRepository,
	devices repository.DeviceRepository,
	datapoints repository.DatapointRepository,
) *CleanupService {
	return &CleanupService{
		apiaries:   apiaries,
		devices:    devices,
		datapoints: datapoints,
		events:     nuts.NewEventEmitter(),
	}
}

// DeleteApiary deletes an apiary and all its associated data. Members
// and devices cascade with the apiary row; the datapoint series of each
// device are cleared afterwards.
func (s *CleanupService) DeleteApiary(ctx context.Context, apiaryID string) error {
	devices, err := s.devices.ListByApiary(ctx, apiaryID)
	if err != nil {
		return err
	}

	if err := s.apiaries.Delete(ctx, apiaryID); err != nil {
		return err
	}

	serials := make([]string, 0, len(devices))
	for _, device := range devices {
		serials = append(serials, device.Serial)
	}
	if err := s.datapoints.DeleteBySerials(ctx, serials); err != nil {
		nuts.L.Warnf("[Cleanup] Orphaned datapoint series for apiary %s: %v", apiaryID, err)
	}

	for _, device := range devices {
		s.events.Emit("device.deleted", device.ID)
	}
	s.events.Emit("apiary.deleted", apiaryID)
	return nil
}

// DeleteDevice deletes a device and then its datapoint series.
func (s *CleanupService) DeleteDevice(ctx context.Context, apiaryID, deviceID, serial string) error {
	if err := s.devices.Delete(ctx, apiaryID, deviceID); err != nil {
		return err
	}

	if err := s.datapoints.DeleteBySerial(ctx, serial); err != nil {
		nuts.L.Warnf("[Cleanup] Orphaned datapoint series for serial %s: %v", serial, err)
	}

	s.events.Emit("device.deleted", deviceID)
	return nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, "cleanup_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
