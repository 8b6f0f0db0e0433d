package preview

import "errors"

var (
	ErrBadRequest  = errors.New("preview: bad request")
	ErrNoTemplates = errors.New("preview: no templates registered")
	ErrNoBody      = errors.New("preview: body index out of range")
)
