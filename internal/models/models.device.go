// FilePath: internal/models/models.device.go
package models

import "time"

// Device is a registered hardware unit producing a datapoint series.
// Serial is immutable after creation and globally unique, as is the
// remote connection URL. The remote URL is only readable and writable
// by apiary admins.
type Device struct {
	ID        string    `json:"id" db:"id" readxs:"*" writexs:"*"`
	ApiaryID  string    `json:"apiary_id" db:"apiary_id" readxs:"*" writexs:"*"`
	Serial    string    `json:"serial" db:"serial" readxs:"*" writexs:"*"`
	Name      string    `json:"name" db:"name" readxs:"*" writexs:"*"`
	Remote    string    `json:"remote,omitempty" db:"remote" readxs:"admin,creator,system" writexs:"admin,creator,system"`
	CreatedAt time.Time `json:"created_at" db:"created_at" readxs:"*" writexs:"*"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" readxs:"*" writexs:"*"`
}

// DeviceUpdate carries the mutable device fields of an update request.
// Nil means "leave unchanged". Serial is present only so that requests
// attempting to change it can be rejected explicitly.
type DeviceUpdate struct {
	Serial *string `json:"serial,omitempty"`
	Name   *string `json:"name,omitempty"`
	Remote *string `json:"remote,omitempty"`
}
