package scan

import "errors"

var (
	ErrInvalidRange  = errors.New("scan: invalid seed range")
	ErrInvalidTarget = errors.New("scan: invalid target opening")
	ErrInvalidOp     = errors.New("scan: unknown target op")
)
