// FilePath: internal/access/access.go

// Package access is the single authorization decision point for apiary
// operations. Every mutating handler resolves the caller's role against
// the apiary's member list and checks it here instead of re-deriving
// membership inline.
package access

import (
	"errors"

	"github.com/hivetool/apiaryhub/internal/models"
)

var (
	// ErrNotAMember indicates the caller is absent from the member list.
	// Handlers surface this as a not-found style response so outsiders
	// cannot probe apiary membership.
	ErrNotAMember = errors.New("user is not a member of this apiary")
	// ErrInsufficientRole indicates the caller is a member but the
	// action requires a higher role.
	ErrInsufficientRole = errors.New("user role does not permit this action")
)

// Action is an operation gated by membership role.
type Action string

const (
	ActionViewApiary   Action = "apiary.view"
	ActionUpdateApiary Action = "apiary.update"
	ActionDeleteApiary Action = "apiary.delete"
	ActionCreateDevice Action = "device.create"
	ActionUpdateDevice Action = "device.update"
	ActionDeleteDevice Action = "device.delete"
	ActionAddMember    Action = "member.add"
	ActionUpdateMember Action = "member.update"
	ActionRemoveMember Action = "member.remove"
)

// minimumRole maps each action to the lowest role that may perform it.
var minimumRole = map[Action]models.Role{
	ActionViewApiary:   models.RoleUser,
	ActionUpdateApiary: models.RoleAdmin,
	ActionDeleteApiary: models.RoleCreator,
	ActionCreateDevice: models.RoleAdmin,
	ActionUpdateDevice: models.RoleAdmin,
	ActionDeleteDevice: models.RoleAdmin,
	ActionAddMember:    models.RoleAdmin,
	ActionUpdateMember: models.RoleAdmin,
	ActionRemoveMember: models.RoleAdmin,
}

// roleRank orders roles by privilege.
var roleRank = map[models.Role]int{
	models.RoleUser:    1,
	models.RoleAdmin:   2,
	models.RoleCreator: 3,
}

// ResolveRole scans the member list for userID and returns the
// associated role, or ErrNotAMember.
func ResolveRole(members []*models.Member, userID string) (models.Role, error) {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role, nil
		}
	}
	return "", ErrNotAMember
}

// Authorize checks whether a role permits an action. It is a pure
// decision function with no side effects.
func Authorize(role models.Role, action Action) error {
	min, ok := minimumRole[action]
	if !ok {
		return ErrInsufficientRole
	}
	if roleRank[role] < roleRank[min] {
		return ErrInsufficientRole
	}
	return nil
}

// Resolve combines ResolveRole and Authorize: the existence check runs
// first so non-members get ErrNotAMember regardless of action.
func Resolve(members []*models.Member, userID string, action Action) (models.Role, error) {
	role, err := ResolveRole(members, userID)
	if err != nil {
		return "", err
	}
	if err := Authorize(role, action); err != nil {
		return role, err
	}
	return role, nil
}
