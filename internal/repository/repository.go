// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/models"
)

// ApiaryRepository defines the interface for apiary data operations
type ApiaryRepository interface {
	database.Repository
	// Create inserts the apiary together with its CREATOR member in a
	// single transaction.
	Create(ctx context.Context, apiary *models.Apiary, creatorUserID string) error
	Get(ctx context.Context, id string) (*models.Apiary, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*models.Apiary, error)
}

// MemberRepository defines the interface for apiary membership operations.
// Role changes and removals are single filtered statements against the
// matching row; the member list is never rewritten wholesale, so two
// concurrent membership changes cannot clobber each other.
type MemberRepository interface {
	database.Repository
	Add(ctx context.Context, member *models.Member) error
	UpdateRole(ctx context.Context, apiaryID, userID string, role models.Role) error
	Remove(ctx context.Context, apiaryID, userID string) error
	List(ctx context.Context, apiaryID string) ([]*models.Member, error)
	Count(ctx context.Context, apiaryID string) (int, error)
}

// DeviceRepository defines the interface for device registry operations
type DeviceRepository interface {
	database.Repository
	Create(ctx context.Context, device *models.Device) error
	Get(ctx context.Context, apiaryID, deviceID string) (*models.Device, error)
	GetBySerial(ctx context.Context, serial string) (*models.Device, error)
	// Update changes only the supplied fields; nil leaves a field as is.
	Update(ctx context.Context, apiaryID, deviceID string, name, remote *string) error
	Delete(ctx context.Context, apiaryID, deviceID string) error
	ListByApiary(ctx context.Context, apiaryID string) ([]*models.Device, error)
}

// DatapointRepository defines the interface for the append-only
// datapoint series, keyed by device serial.
type DatapointRepository interface {
	Insert(ctx context.Context, point *models.Datapoint) error
	// GetSince returns points with time >= from in ascending order.
	GetSince(ctx context.Context, serial string, from time.Time) ([]*models.Datapoint, error)
	Latest(ctx context.Context, serial string) (*models.Datapoint, error)
	DeleteBySerial(ctx context.Context, serial string) error
	DeleteBySerials(ctx context.Context, serials []string) error
}
