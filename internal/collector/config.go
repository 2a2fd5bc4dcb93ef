package collector

import (
	"math"
	"time"

	"codeberg.org/mutker/scadactl/internal/errors"
)

type Config struct {
	SampleRateHz  float64
	BufferSeconds int
}

func DefaultConfig() Config {
	return Config{
		SampleRateHz:  1.0,
		BufferSeconds: 300,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.SampleRateHz <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "sample rate must be > 0")
	}
	if c.BufferSeconds <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "buffer retention must be > 0")
	}

	return nil
}

// SampleInterval returns the time between collection cycles.
func (c Config) SampleInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.SampleRateHz)
}

// MaxBufferSize returns the ring capacity: round(rate * window).
func (c Config) MaxBufferSize() int {
	return int(math.Round(c.SampleRateHz * float64(c.BufferSeconds)))
}
