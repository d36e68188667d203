package models

import (
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// User is an identity record keyed by the messaging platform's numeric id.
type User struct {
	ID           int64      `json:"id"`
	ExternalID   int64      `json:"external_id"`
	Username     string     `json:"username,omitempty"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	LanguageCode string     `json:"language_code,omitempty"`
	Timezone     string     `json:"timezone,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// DisplayName returns the username, falling back to the external id.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ExternalID, 10)
}

// Identity is what an authentication layer knows about a caller.
type Identity struct {
	ExternalID   int64  `json:"external_id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Timezone     string `json:"timezone,omitempty"`
}

// Validate validates the identity.
func (i Identity) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ExternalID, validation.Required, validation.Min(int64(1))),
		validation.Field(&i.Username, validation.RuneLength(0, 255)),
		validation.Field(&i.FirstName, validation.RuneLength(0, 255)),
		validation.Field(&i.LastName, validation.RuneLength(0, 255)),
		validation.Field(&i.LanguageCode, validation.RuneLength(0, 10)),
		validation.Field(&i.Timezone, validation.RuneLength(0, 50)),
	)
}
