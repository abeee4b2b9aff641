package publication

import "errors"

var (
	ErrPublicationNotFound = errors.New("publication not found")
	ErrSlugAlreadyExists   = errors.New("slug already exists")
	ErrInvalidSlug         = errors.New("invalid slug format")
	ErrForbidden           = errors.New("forbidden: not the publication owner")
)
