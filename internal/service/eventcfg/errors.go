package eventcfg

import "errors"

var (
	ErrIndexOutOfRange = errors.New("program item index out of range")
	ErrInvalidConfig   = errors.New("invalid event configuration")
)
