package contact

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of birthdays.
const DateLayout = "2006-01-02"

// Contact is an address book entry owned by exactly one user.
type Contact struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	FirstName         string
	LastName          string
	Email             string
	PhoneNumber       string
	Birthday          time.Time
	Note              *string
	AvatarObject      *string
	AvatarContentType *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasAvatar reports whether an avatar object is attached.
func (c Contact) HasAvatar() bool {
	return c.AvatarObject != nil && *c.AvatarObject != ""
}

// Fields holds every user-editable contact attribute. Create and Update both
// take the full set; there are no partial updates.
type Fields struct {
	FirstName   string    `json:"first_name" validate:"required,max=100"`
	LastName    string    `json:"last_name" validate:"required,max=100"`
	Email       string    `json:"email" validate:"required,email,max=254"`
	PhoneNumber string    `json:"phone_number" validate:"required,max=32"`
	Birthday    time.Time `json:"birthday"`
	Note        *string   `json:"note" validate:"omitempty,max=2000"`
}
