package post

import "errors"

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrForbidden     = errors.New("not allowed to modify this post")
	ErrInvalidUpload = errors.New("invalid cover image upload")
)
