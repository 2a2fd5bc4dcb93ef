package collector

import "codeberg.org/mutker/scadactl/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrCollectCycle  = errors.ErrCollectCycle
	ErrEmptyBuffer   = errors.ErrEmptyBuffer
	ErrUnknownPoint  = errors.ErrUnknownPoint
	ErrExportFailed  = errors.ErrExportFailed
	ErrInvalidFormat = errors.ErrInvalidFormat
)
