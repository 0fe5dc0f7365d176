package access

import (
	"testing"

	"github.com/hivetool/apiaryhub/internal/models"
)

func testMembers() []*models.Member {
	return []*models.Member{
		{UserID: "u1", Role: models.RoleCreator},
		{UserID: "u2", Role: models.RoleAdmin},
		{UserID: "u3", Role: models.RoleUser},
	}
}

func TestResolveRole(t *testing.T) {
	members := testMembers()

	role, err := ResolveRole(members, "u2")
	if err != nil {
		t.Fatalf("ResolveRole(u2) error: %v", err)
	}
	if role != models.RoleAdmin {
		t.Errorf("ResolveRole(u2) = %s, want ADMIN", role)
	}

	_, err = ResolveRole(members, "stranger")
	if err != ErrNotAMember {
		t.Errorf("ResolveRole(stranger) error = %v, want ErrNotAMember", err)
	}

	_, err = ResolveRole(nil, "u1")
	if err != ErrNotAMember {
		t.Errorf("ResolveRole on empty list error = %v, want ErrNotAMember", err)
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		role    models.Role
		action  Action
		allowed bool
	}{
		{models.RoleUser, ActionViewApiary, true},
		{models.RoleAdmin, ActionViewApiary, true},
		{models.RoleCreator, ActionViewApiary, true},

		{models.RoleUser, ActionUpdateApiary, false},
		{models.RoleAdmin, ActionUpdateApiary, true},
		{models.RoleCreator, ActionUpdateApiary, true},

		{models.RoleUser, ActionDeleteApiary, false},
		{models.RoleAdmin, ActionDeleteApiary, false},
		{models.RoleCreator, ActionDeleteApiary, true},

		{models.RoleUser, ActionCreateDevice, false},
		{models.RoleAdmin, ActionCreateDevice, true},
		{models.RoleUser, ActionUpdateDevice, false},
		{models.RoleAdmin, ActionDeleteDevice, true},

		{models.RoleUser, ActionAddMember, false},
		{models.RoleAdmin, ActionAddMember, true},
		{models.RoleUser, ActionUpdateMember, false},
		{models.RoleCreator, ActionUpdateMember, true},
		{models.RoleUser, ActionRemoveMember, false},
		{models.RoleAdmin, ActionRemoveMember, true},
	}

	for _, tt := range tests {
		err := Authorize(tt.role, tt.action)
		if tt.allowed && err != nil {
			t.Errorf("Authorize(%s, %s) = %v, want allowed", tt.role, tt.action, err)
		}
		if !tt.allowed && err != ErrInsufficientRole {
			t.Errorf("Authorize(%s, %s) = %v, want ErrInsufficientRole", tt.role, tt.action, err)
		}
	}
}

func TestAuthorizeUnknownAction(t *testing.T) {
	if err := Authorize(models.RoleCreator, Action("bogus")); err != ErrInsufficientRole {
		t.Errorf("unknown action error = %v, want ErrInsufficientRole", err)
	}
}

func TestResolveNonMemberDeniedForAllActions(t *testing.T) {
	members := testMembers()
	actions := []Action{
		ActionViewApiary, ActionUpdateApiary, ActionDeleteApiary,
		ActionCreateDevice, ActionUpdateDevice, ActionDeleteDevice,
		ActionAddMember, ActionUpdateMember, ActionRemoveMember,
	}
	for _, action := range actions {
		if _, err := Resolve(members, "stranger", action); err != ErrNotAMember {
			t.Errorf("Resolve(stranger, %s) = %v, want ErrNotAMember", action, err)
		}
	}
}

func TestResolveRoleCheckAfterExistenceCheck(t *testing.T) {
	// A member with too low a role must get the role error, not the
	// membership error.
	if _, err := Resolve(testMembers(), "u3", ActionDeleteApiary); err != ErrInsufficientRole {
		t.Errorf("Resolve(u3, delete) = %v, want ErrInsufficientRole", err)
	}
}
