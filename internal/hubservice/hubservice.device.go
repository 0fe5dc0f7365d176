// FilePath: internal/hubservice/hubservice.device.go
package hubservice

import (
	"context"
	"strings"
	"time"

	"github.com/hivetool/apiaryhub/internal/access"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"
)

func roleSlugs(role models.Role) []string {
	return []string{strings.ToLower(string(role))}
}

// filterDeviceFields strips fields the role may not read, like the
// remote connection URL for plain members.
func filterDeviceFields(device *models.Device, roles []string) (*models.Device, error) {
	filteredMap, err := struccy.StructToMapFieldsWithReadXS(device, roles)
	if err != nil {
		return nil, err
	}
	filtered := &models.Device{}
	if _, err := struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, roles); err != nil {
		return nil, err
	}
	return filtered, nil
}

func (s *HubService) filterDevicesForRole(devices []*models.Device, role models.Role) []*models.Device {
	roles := roleSlugs(role)
	filtered := make([]*models.Device, 0, len(devices))
	for _, device := range devices {
		fd, err := filterDeviceFields(device, roles)
		if err != nil {
			nuts.L.Warnf("[DeviceService] Failed to filter device %s: %v", device.ID, err)
			continue
		}
		filtered = append(filtered, fd)
	}
	return filtered
}

// AddDevice registers a device in an apiary. Serial numbers and remote
// URLs are unique across all apiaries, not just this one. The device
// starts with an empty datapoint series.
func (s *HubService) AddDevice(ctx context.Context, apiaryID, callerID string, device *models.Device) (*models.Device, error) {
	if device.Serial == "" || device.Name == "" || device.Remote == "" {
		return nil, errors.NewValidationError("device serial, name and remote URL are required", nil)
	}

	_, role, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(role, access.ActionCreateDevice,
		"User not authorized. User must be an admin of the apiary to manage its devices"); err != nil {
		return nil, err
	}

	device.ID = nuts.NID("dev", 12)
	device.ApiaryID = apiaryID
	now := time.Now()
	device.CreatedAt = now
	device.UpdatedAt = now

	if err := s.Devices.Create(ctx, device); err != nil {
		return nil, err
	}

	nuts.L.Infof("[DeviceService] Device %s (serial %s) added to apiary %s by %s",
		device.ID, device.Serial, apiaryID, callerID)
	return device, nil
}

// GetDevices lists the devices of an apiary, fields filtered by the
// caller's role.
func (s *HubService) GetDevices(ctx context.Context, apiaryID, callerID string) ([]*models.Device, error) {
	_, role, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}

	devices, err := s.Devices.ListByApiary(ctx, apiaryID)
	if err != nil {
		return nil, err
	}
	return s.filterDevicesForRole(devices, role), nil
}

// UpdateDevice updates the supplied mutable fields of a device. Serial
// numbers are immutable; an update naming a different serial is
// rejected rather than silently ignored.
func (s *HubService) UpdateDevice(ctx context.Context, apiaryID, callerID, deviceID string, update *models.DeviceUpdate) (*models.Device, error) {
	_, role, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(role, access.ActionUpdateDevice,
		"User not authorized. User must be an admin of the apiary to manage its devices"); err != nil {
		return nil, err
	}

	existing, err := s.Devices.Get(ctx, apiaryID, deviceID)
	if err != nil {
		return nil, err
	}

	if update.Serial != nil && *update.Serial != existing.Serial {
		return nil, errors.NewValidationError("device serial numbers are immutable", nil)
	}
	if update.Name != nil && *update.Name == "" {
		return nil, errors.NewValidationError("device name cannot be empty", nil)
	}
	if update.Remote != nil && *update.Remote == "" {
		return nil, errors.NewValidationError("device remote URL cannot be empty", nil)
	}

	if err := s.Devices.Update(ctx, apiaryID, deviceID, update.Name, update.Remote); err != nil {
		return nil, err
	}

	nuts.L.Infof("[DeviceService] Device %s in apiary %s updated by %s", deviceID, apiaryID, callerID)
	return s.Devices.Get(ctx, apiaryID, deviceID)
}

// RemoveDevice deletes a device and its datapoint series.
func (s *HubService) RemoveDevice(ctx context.Context, apiaryID, callerID, deviceID string) error {
	_, role, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return err
	}
	if err := authorize(role, access.ActionDeleteDevice,
		"User not authorized. User must be an admin of the apiary to manage its devices"); err != nil {
		return err
	}

	device, err := s.Devices.Get(ctx, apiaryID, deviceID)
	if err != nil {
		return err
	}

	if s.Charts != nil {
		s.Charts.Invalidate(ctx, device.Serial)
	}

	nuts.L.Infof("[DeviceService] Device %s (serial %s) removed from apiary %s by %s",
		deviceID, device.Serial, apiaryID, callerID)
	return s.Cleanup.DeleteDevice(ctx, apiaryID, deviceID, device.Serial)
}
