package models

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultTagColor is used when a tag is created without a color.
const DefaultTagColor = "#808080"

// MaxTagNameLength bounds Tag.Name in characters.
const MaxTagNameLength = 100

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Tag is a globally unique label.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidateTag checks a tag name and an optional color.
func ValidateTag(name, color string) error {
	return validation.Errors{
		"name":  validation.Validate(name, validation.Required, notBlank, validation.RuneLength(1, MaxTagNameLength)),
		"color": validation.Validate(color, validation.Match(hexColorRe).Error("must be a #RRGGBB hex color")),
	}.Filter()
}
