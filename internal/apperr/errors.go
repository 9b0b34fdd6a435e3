package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnauthenticated   = errors.New("unauthenticated")
)
