package common

import "errors"

// ErrInvalidToken is returned when an access token cannot be decoded.
var ErrInvalidToken = errors.New("invalid token")
