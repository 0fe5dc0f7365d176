// FilePath: internal/repository/postgres/postgres.apiary.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
)

type ApiaryRepo struct {
	PostgresBaseRepo
}

func NewApiaryRepository(db database.DB) *ApiaryRepo {
	repo := &PostgresBaseRepo{db: db}
	return &ApiaryRepo{PostgresBaseRepo: *repo}
}

func (r *ApiaryRepo) Create(ctx context.Context, apiary *models.Apiary, creatorUserID string) error {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	apiaryQuery := `
		INSERT INTO apiaries (
			id, name, latitude, longitude, formatted_address, place_id,
			created_at, updated_at
		) VALUES (
			:id, :name, :latitude, :longitude, :formatted_address, :place_id,
			:created_at, :updated_at
		)`

	if _, err := tx.NamedExecContext(ctx, apiaryQuery, apiary); err != nil {
		if isUniqueViolation(err, "apiaries_name_key") {
			return errors.NewDuplicateError("an apiary with this name already exists", err)
		}
		return errors.NewDatabaseError("failed to create apiary", err)
	}

	memberQuery := `
		INSERT INTO apiary_members (apiary_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := tx.ExecContext(ctx, memberQuery, apiary.ID, creatorUserID, models.RoleCreator, apiary.CreatedAt); err != nil {
		return errors.NewDatabaseError("failed to create apiary creator member", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}

func (r *ApiaryRepo) Get(ctx context.Context, id string) (*models.Apiary, error) {
	apiary := &models.Apiary{}
	query := `SELECT * FROM apiaries WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, apiary, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("apiary not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get apiary", err)
	}

	if err := r.attachChildren(ctx, apiary); err != nil {
		return nil, err
	}
	return apiary, nil
}

func (r *ApiaryRepo) UpdateName(ctx context.Context, id, name string) error {
	query := `UPDATE apiaries SET name = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.GetDB().ExecContext(ctx, query, name, time.Now(), id)
	if err != nil {
		if isUniqueViolation(err, "apiaries_name_key") {
			return errors.NewDuplicateError("an apiary with this name already exists", err)
		}
		return errors.NewDatabaseError("failed to update apiary", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("apiary not found", nil)
	}
	return nil
}

func (r *ApiaryRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM apiaries WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete apiary", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("apiary not found", nil)
	}
	return nil
}

func (r *ApiaryRepo) ListByUser(ctx context.Context, userID string) ([]*models.Apiary, error) {
	apiaries := []*models.Apiary{}
	query := `
		SELECT a.* FROM apiaries a
		JOIN apiary_members m ON m.apiary_id = a.id
		WHERE m.user_id = $1
		ORDER BY a.created_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &apiaries, query, userID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list apiaries", err)
	}

	for _, apiary := range apiaries {
		if err := r.attachChildren(ctx, apiary); err != nil {
			return nil, err
		}
	}
	return apiaries, nil
}

func (r *ApiaryRepo) attachChildren(ctx context.Context, apiary *models.Apiary) error {
	members := []*models.Member{}
	memberQuery := `
		SELECT apiary_id, user_id, role, created_at
		FROM apiary_members
		WHERE apiary_id = $1
		ORDER BY created_at ASC`

	if err := r.db.GetDB().SelectContext(ctx, &members, memberQuery, apiary.ID); err != nil {
		return errors.NewDatabaseError("failed to load apiary members", err)
	}
	apiary.Members = members

	devices := []*models.Device{}
	deviceQuery := `SELECT * FROM devices WHERE apiary_id = $1 ORDER BY created_at ASC`

	if err := r.db.GetDB().SelectContext(ctx, &devices, deviceQuery, apiary.ID); err != nil {
		return errors.NewDatabaseError("failed to load apiary devices", err)
	}
	apiary.Devices = devices
	return nil
}
