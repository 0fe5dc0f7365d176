// FilePath: internal/models/models.apiary.go
package models

import "time"

// Role is the membership role of a user within an apiary.
type Role string

const (
	RoleUser    Role = "USER"
	RoleAdmin   Role = "ADMIN"
	RoleCreator Role = "CREATOR"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleCreator:
		return true
	}
	return false
}

// AtLeastAdmin reports whether the role carries admin privileges.
func (r Role) AtLeastAdmin() bool {
	return r == RoleAdmin || r == RoleCreator
}

// MaxMembersPerApiary caps the member list of a single apiary.
const MaxMembersPerApiary = 10

type Apiary struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Latitude         float64   `json:"latitude" db:"latitude"`
	Longitude        float64   `json:"longitude" db:"longitude"`
	FormattedAddress string    `json:"formatted_address,omitempty" db:"formatted_address"`
	PlaceID          string    `json:"place_id,omitempty" db:"place_id"`
	Members          []*Member `json:"members,omitempty" db:"-"`
	Devices          []*Device `json:"devices,omitempty" db:"-"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Member is a (user, role) pair within an apiary. Member order is
// insertion order and carries no meaning beyond display.
type Member struct {
	ApiaryID  string    `json:"apiary_id" db:"apiary_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
