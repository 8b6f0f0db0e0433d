package cache

import "errors"

var (
	// ErrNotFound is returned when a key is missing or expired.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrEncode is returned when a value cannot be serialized.
	ErrEncode = errors.New("cache: failed to encode value")

	// ErrDecode is returned when a stored value cannot be deserialized.
	ErrDecode = errors.New("cache: failed to decode value")
)

var (
	ErrEmptyConnectionURL = errors.New("cache: empty redis connection URL")
	ErrInvalidURL         = errors.New("cache: invalid redis connection URL")
	ErrConnectionFailed   = errors.New("cache: failed to connect to redis")
	ErrUnhealthy          = errors.New("cache: redis healthcheck failed")
)
