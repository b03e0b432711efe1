package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNotFile         = errors.New("not a file")
	ErrParentNotFolder = errors.New("parent is not a folder")
	ErrInvalidRecord   = errors.New("invalid record")
)
