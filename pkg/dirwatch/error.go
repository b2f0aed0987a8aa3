package dirwatch

import "errors"

var (
	ErrLoggerMissing = errors.New("Logger is missing")
	ErrEngineMissing = errors.New("Engine is missing")
	ErrNameMissing   = errors.New("Name is missing")
)
