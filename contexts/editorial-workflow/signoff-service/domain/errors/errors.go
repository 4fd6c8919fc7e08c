package errors

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid sign-off request")
	ErrItemNotFound   = errors.New("content item not found")
	ErrUnauthorized   = errors.New("actor may not act on this content item")
	ErrNotModerator   = errors.New("actor is not a moderator")
	ErrInvalidToken   = errors.New("action token is missing or invalid")
	ErrForbidden      = errors.New("administrator privileges required")
)
