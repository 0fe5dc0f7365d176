// FilePath: internal/repository/postgres/postgres.device.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
)

type DeviceRepo struct {
	PostgresBaseRepo
}

func NewDeviceRepository(db database.DB) *DeviceRepo {
	repo := &PostgresBaseRepo{db: db}
	return &DeviceRepo{PostgresBaseRepo: *repo}
}

func (r *DeviceRepo) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (
			id, apiary_id, serial, name, remote, created_at, updated_at
		) VALUES (
			:id, :apiary_id, :serial, :name, :remote, :created_at, :updated_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, device)
	if err != nil {
		if isUniqueViolation(err, "devices_serial_key") {
			return errors.NewDuplicateError("a device with this serial number already exists", err)
		}
		if isUniqueViolation(err, "devices_remote_key") {
			return errors.NewDuplicateError("a device with this remote URL already exists", err)
		}
		return errors.NewDatabaseError("failed to create device", err)
	}
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, apiaryID, deviceID string) (*models.Device, error) {
	device := &models.Device{}
	query := `SELECT * FROM devices WHERE id = $1 AND apiary_id = $2`

	err := r.db.GetDB().GetContext(ctx, device, query, deviceID, apiaryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("device not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}

func (r *DeviceRepo) GetBySerial(ctx context.Context, serial string) (*models.Device, error) {
	device := &models.Device{}
	query := `SELECT * FROM devices WHERE serial = $1`

	err := r.db.GetDB().GetContext(ctx, device, query, serial)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("device not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}

// Update writes only the supplied fields via COALESCE so the statement
// stays a single atomic update of the matching row.
func (r *DeviceRepo) Update(ctx context.Context, apiaryID, deviceID string, name, remote *string) error {
	query := `
		UPDATE devices SET
			name = COALESCE($1, name),
			remote = COALESCE($2, remote),
			updated_at = $3
		WHERE id = $4 AND apiary_id = $5`

	result, err := r.db.GetDB().ExecContext(ctx, query, name, remote, time.Now(), deviceID, apiaryID)
	if err != nil {
		if isUniqueViolation(err, "devices_remote_key") {
			return errors.NewDuplicateError("a device with this remote URL already exists", err)
		}
		return errors.NewDatabaseError("failed to update device", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}
	return nil
}

func (r *DeviceRepo) Delete(ctx context.Context, apiaryID, deviceID string) error {
	query := `DELETE FROM devices WHERE id = $1 AND apiary_id = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, deviceID, apiaryID)
	if err != nil {
		return errors.NewDatabaseError("failed to delete device", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("device not found", nil)
	}
	return nil
}

func (r *DeviceRepo) ListByApiary(ctx context.Context, apiaryID string) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `SELECT * FROM devices WHERE apiary_id = $1 ORDER BY created_at ASC`

	err := r.db.GetDB().SelectContext(ctx, &devices, query, apiaryID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	return devices, nil
}
