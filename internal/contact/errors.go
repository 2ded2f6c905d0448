package contact

import "errors"

var (
	// ErrContactNotFound is returned when no contact matches both the id and the caller.
	ErrContactNotFound = errors.New("contact not found")
	// ErrEmailTaken indicates another contact already uses the email address.
	ErrEmailTaken = errors.New("contact email already in use")
	// ErrAvatarNotFound is returned when the contact has no stored avatar.
	ErrAvatarNotFound = errors.New("avatar not found")
	// ErrAvatarTooLarge indicates the upload exceeds the avatar size limit.
	ErrAvatarTooLarge = errors.New("avatar too large")
	// ErrAvatarType indicates the upload is not an image.
	ErrAvatarType = errors.New("avatar must be an image")
)
