package scada

import "codeberg.org/mutker/scadactl/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrConnectFailed = errors.ErrConnectFailed
	ErrNotConnected  = errors.ErrNotConnected
	ErrReadPoint     = errors.ErrReadPoint
	ErrWritePoint    = errors.ErrWritePoint
	ErrMalformedBody = errors.ErrorCode("scada_malformed_response")
)
