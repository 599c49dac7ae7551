package passes

import "errors"

var (
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrInvalidMetadata  = errors.New("invalid metadata")
	ErrPersistence      = errors.New("persistence error")
	ErrIssuer           = errors.New("pass issuer error")
	ErrNotification     = errors.New("notification error")
	ErrNotFound         = errors.New("purchase not found")
	ErrInvalidStatus    = errors.New("invalid status")
)
