// FilePath: internal/hubservice/hubservice.member.go
package hubservice

import (
	"context"
	"fmt"
	"time"

	"github.com/hivetool/apiaryhub/internal/access"
	"github.com/hivetool/apiaryhub/internal/errors"
	"github.com/hivetool/apiaryhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// targetRole finds the current role of targetUserID in the member list.
func targetRole(members []*models.Member, targetUserID string) (models.Role, bool) {
	for _, m := range members {
		if m.UserID == targetUserID {
			return m.Role, true
		}
	}
	return "", false
}

// AddMember adds a user to an apiary. The CREATOR role is assigned once
// at apiary creation and can never be granted here.
func (s *HubService) AddMember(ctx context.Context, apiaryID, callerID, targetUserID string, role models.Role) ([]*models.Member, error) {
	if targetUserID == "" {
		return nil, errors.NewValidationError("member user id is required", nil)
	}

	apiary, callerRole, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(callerRole, access.ActionAddMember,
		"User not authorized. User must be an admin of the apiary to manage its members"); err != nil {
		return nil, err
	}

	if role == "" {
		role = models.RoleUser
	}
	if role == models.RoleCreator {
		return nil, errors.NewInvalidRoleError("an apiary has exactly one creator, assigned at creation", nil)
	}
	if !role.IsValid() {
		return nil, errors.NewInvalidRoleError(fmt.Sprintf("invalid role %q", role), nil)
	}

	if len(apiary.Members) >= models.MaxMembersPerApiary {
		return nil, errors.NewMemberLimitError(
			fmt.Sprintf("apiary member limit of %d reached", models.MaxMembersPerApiary), nil)
	}

	member := &models.Member{
		ApiaryID:  apiaryID,
		UserID:    targetUserID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := s.Members.Add(ctx, member); err != nil {
		return nil, err
	}

	nuts.L.Infof("[MemberService] User %s added to apiary %s as %s by %s", targetUserID, apiaryID, role, callerID)
	return s.Members.List(ctx, apiaryID)
}

// UpdateMemberRole changes a member's role in place. The CREATOR role
// can neither be taken away nor handed out.
func (s *HubService) UpdateMemberRole(ctx context.Context, apiaryID, callerID, targetUserID string, newRole models.Role) ([]*models.Member, error) {
	apiary, callerRole, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(callerRole, access.ActionUpdateMember,
		"User not authorized. User must be an admin of the apiary to manage its members"); err != nil {
		return nil, err
	}

	current, found := targetRole(apiary.Members, targetUserID)
	if !found {
		return nil, errors.NewNotFoundError("member not found", nil)
	}
	if current == models.RoleCreator {
		return nil, errors.NewImmutableCreatorError("the creator's role cannot be changed", nil)
	}
	if newRole == models.RoleCreator {
		return nil, errors.NewInvalidRoleError("an apiary has exactly one creator, assigned at creation", nil)
	}
	if !newRole.IsValid() {
		return nil, errors.NewInvalidRoleError(fmt.Sprintf("invalid role %q", newRole), nil)
	}

	if err := s.Members.UpdateRole(ctx, apiaryID, targetUserID, newRole); err != nil {
		return nil, err
	}

	nuts.L.Infof("[MemberService] User %s in apiary %s set to %s by %s", targetUserID, apiaryID, newRole, callerID)
	return s.Members.List(ctx, apiaryID)
}

// RemoveMember removes a member from an apiary. The CREATOR cannot be
// removed.
func (s *HubService) RemoveMember(ctx context.Context, apiaryID, callerID, targetUserID string) ([]*models.Member, error) {
	apiary, callerRole, err := s.memberOf(ctx, apiaryID, callerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(callerRole, access.ActionRemoveMember,
		"User not authorized. User must be an admin of the apiary to manage its members"); err != nil {
		return nil, err
	}

	current, found := targetRole(apiary.Members, targetUserID)
	if !found {
		return nil, errors.NewNotFoundError("member not found", nil)
	}
	if current == models.RoleCreator {
		return nil, errors.NewImmutableCreatorError("the creator of an apiary cannot be removed", nil)
	}

	if err := s.Members.Remove(ctx, apiaryID, targetUserID); err != nil {
		return nil, err
	}

	nuts.L.Infof("[MemberService] User %s removed from apiary %s by %s", targetUserID, apiaryID, callerID)
	return s.Members.List(ctx, apiaryID)
}
