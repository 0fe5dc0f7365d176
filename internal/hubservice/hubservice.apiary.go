// FilePath: internal/hubservice/hubservice.apiary.go
package hubservice

import (
	"context"
	"time"

	"github.com/hivetool/apiaryhub/internal/access"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// memberOf loads the apiary and resolves the caller's role. Absent
// apiaries and absent memberships both come back as not-found errors so
// the API does not reveal which apiaries exist to outsiders.
func (s *HubService) memberOf(ctx context.Context, apiaryID, userID string) (*models.Apiary, models.Role, error) {
	apiary, err := s.Apiaries.Get(ctx, apiaryID)
	if err != nil {
		return nil, "", err
	}

	role, err := access.ResolveRole(apiary.Members, userID)
	if err != nil {
		return nil, "", errors.NewNotFoundError("user is not a member of this apiary", err)
	}
	return apiary, role, nil
}

func authorize(role models.Role, action access.Action, denied string) error {
	if err := access.Authorize(role, action); err != nil {
		return errors.NewAuthorizationError(denied, err)
	}
	return nil
}

// CreateApiary creates a new apiary; the creating user becomes its sole
// CREATOR member.
func (s *HubService) CreateApiary(ctx context.Context, apiary *models.Apiary, creatorUserID string) error {
	if apiary.Name == "" {
		return errors.NewValidationError("apiary name is required", nil)
	}
	if creatorUserID == "" {
		return errors.NewValidationError("apiary creator is required", nil)
	}

	if apiary.ID == "" {
		apiary.ID = nuts.NID("ap", 12)
	}

	now := time.Now()
	apiary.CreatedAt = now
	apiary.UpdatedAt = now

	nuts.L.Infof("[ApiaryService] Creating apiary %s (%s) for user %s", apiary.Name, apiary.ID, creatorUserID)
	if err := s.Apiaries.Create(ctx, apiary, creatorUserID); err != nil {
		return err
	}

	apiary.Members = []*models.Member{
		{ApiaryID: apiary.ID, UserID: creatorUserID, Role: models.RoleCreator, CreatedAt: now},
	}
	apiary.Devices = []*models.Device{}
	return nil
}

// ListApiaries returns the apiaries the user is a member of.
func (s *HubService) ListApiaries(ctx context.Context, userID string) ([]*models.Apiary, error) {
	apiaries, err := s.Apiaries.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, apiary := range apiaries {
		role, err := access.ResolveRole(apiary.Members, userID)
		if err != nil {
			// The join guarantees membership; treat a mismatch as data
			// corruption rather than an authorization failure.
			nuts.L.Errorf("[ApiaryService] User %s missing from member list of %s", userID, apiary.ID)
			continue
		}
		apiary.Devices = s.filterDevicesForRole(apiary.Devices, role)
	}
	return apiaries, nil
}

// GetApiary returns a single apiary with members and devices, with
// device fields filtered by the caller's role.
func (s *HubService) GetApiary(ctx context.Context, apiaryID, userID string) (*models.Apiary, error) {
	apiary, role, err := s.memberOf(ctx, apiaryID, userID)
	if err != nil {
		return nil, err
	}

	apiary.Devices = s.filterDevicesForRole(apiary.Devices, role)
	return apiary, nil
}

// UpdateApiaryName renames an apiary. Name is the only mutable apiary
// field; location is fixed at creation.
func (s *HubService) UpdateApiaryName(ctx context.Context, apiaryID, userID, name string) (*models.Apiary, error) {
	if name == "" {
		return nil, errors.NewValidationError("apiary name is required", nil)
	}

	_, role, err := s.memberOf(ctx, apiaryID, userID)
	if err != nil {
		return nil, err
	}
	if err := authorize(role, access.ActionUpdateApiary,
		"User not authorized. User must be an admin of the apiary to update it"); err != nil {
		return nil, err
	}

	if err := s.Apiaries.UpdateName(ctx, apiaryID, name); err != nil {
		return nil, err
	}

	nuts.L.Infof("[ApiaryService] Apiary %s renamed to %q by %s", apiaryID, name, userID)
	return s.GetApiary(ctx, apiaryID, userID)
}

// DeleteApiary deletes an apiary with cascading cleanup of members,
// devices and their datapoint series. CREATOR only.
func (s *HubService) DeleteApiary(ctx context.Context, apiaryID, userID string) error {
	apiary, role, err := s.memberOf(ctx, apiaryID, userID)
	if err != nil {
		return err
	}
	if err := authorize(role, access.ActionDeleteApiary,
		"User not authorized. User must be the creator of the apiary to delete it"); err != nil {
		return err
	}

	if s.Charts != nil {
		for _, device := range apiary.Devices {
			s.Charts.Invalidate(ctx, device.Serial)
		}
	}

	nuts.L.Infof("[ApiaryService] Deleting apiary %s by creator %s", apiaryID, userID)
	return s.Cleanup.DeleteApiary(ctx, apiaryID)
}
