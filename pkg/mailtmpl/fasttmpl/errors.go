package fasttmpl

import "errors"

// ErrUnknownTag is returned when a tag matches nothing in the render data.
var ErrUnknownTag = errors.New("fasttmpl: unknown tag")
