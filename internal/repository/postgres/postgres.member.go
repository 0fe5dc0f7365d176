// FilePath: internal/repository/postgres/postgres.member.go
package postgres

import (
	"context"

	"github.com/hivetool/apiaryhub/internal/database"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
)

type MemberRepo struct {
	PostgresBaseRepo
}

func NewMemberRepository(db database.DB) *MemberRepo {
	repo := &PostgresBaseRepo{db: db}
	return &MemberRepo{PostgresBaseRepo: *repo}
}

func (r *MemberRepo) Add(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO apiary_members (apiary_id, user_id, role, created_at)
		VALUES (:apiary_id, :user_id, :role, :created_at)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, member)
	if err != nil {
		if isUniqueViolation(err, "apiary_members_pkey") {
			return errors.NewDuplicateError("user is already a member of this apiary", err)
		}
		return errors.NewDatabaseError("failed to add member", err)
	}
	return nil
}

// UpdateRole replaces the role of the matching member row in place.
func (r *MemberRepo) UpdateRole(ctx context.Context, apiaryID, userID string, role models.Role) error {
	query := `UPDATE apiary_members SET role = $1 WHERE apiary_id = $2 AND user_id = $3`

	result, err := r.db.GetDB().ExecContext(ctx, query, role, apiaryID, userID)
	if err != nil {
		return errors.NewDatabaseError("failed to update member role", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("member not found", nil)
	}
	return nil
}

func (r *MemberRepo) Remove(ctx context.Context, apiaryID, userID string) error {
	query := `DELETE FROM apiary_members WHERE apiary_id = $1 AND user_id = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, apiaryID, userID)
	if err != nil {
		return errors.NewDatabaseError("failed to remove member", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("member not found", nil)
	}
	return nil
}

func (r *MemberRepo) List(ctx context.Context, apiaryID string) ([]*models.Member, error) {
	members := []*models.Member{}
	query := `
		SELECT apiary_id, user_id, role, created_at
		FROM apiary_members
		WHERE apiary_id = $1
		ORDER BY created_at ASC`

	err := r.db.GetDB().SelectContext(ctx, &members, query, apiaryID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list members", err)
	}
	return members, nil
}

func (r *MemberRepo) Count(ctx context.Context, apiaryID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM apiary_members WHERE apiary_id = $1`

	err := r.db.GetDB().GetContext(ctx, &count, query, apiaryID)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count members", err)
	}
	return count, nil
}
