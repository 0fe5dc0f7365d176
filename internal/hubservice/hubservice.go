package hubservice

import (
	"context"
	"time"

	"github.com/hivetool/apiaryhub/internal/cleanup"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
	"github.com/hivetool/apiaryhub/internal/repository"
)

// ChartCache is the hot-path cache for downsampled chart payloads. A
// nil cache disables caching; every lookup is then a miss.
type ChartCache interface {
	Get(ctx context.Context, serial string, filter models.TimeFilter) ([]*models.Datapoint, bool)
	Set(ctx context.Context, serial string, filter models.TimeFilter, points []*models.Datapoint)
	Invalidate(ctx context.Context, serial string)
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Apiaries   repository.ApiaryRepository
	Members    repository.MemberRepository
	Devices    repository.DeviceRepository
	Datapoints repository.DatapointRepository
	Charts     ChartCache
	Cleanup    *cleanup.CleanupService

	onlineThreshold time.Duration
}

// New creates a new HubService instance
func New(
	apiaries repository.ApiaryRepository,
	members repository.MemberRepository,
	devices repository.DeviceRepository,
	datapoints repository.DatapointRepository,
	charts ChartCache,
	onlineThreshold time.Duration,
) *HubService {
	svc := &HubService{
		Apiaries:        apiaries,
		Members:         members,
		Devices:         devices,
		Datapoints:      datapoints,
		Charts:          charts,
		onlineThreshold: onlineThreshold,
	}
	svc.Cleanup = cleanup.New(apiaries, devices, datapoints)
	return svc
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.Apiaries == nil {
		return ErrMissingRepository("apiaries")
	}
	if s.Members == nil {
		return ErrMissingRepository("members")
	}
	if s.Devices == nil {
		return ErrMissingRepository("devices")
	}
	if s.Datapoints == nil {
		return ErrMissingRepository("datapoints")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
