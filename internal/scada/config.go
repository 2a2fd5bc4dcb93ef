package scada

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/scadactl/internal/errors"
)

const defaultTimeout = 5 * time.Second

// Data type identifiers used by the SCADA-LTS point_value API.
const (
	DataTypeBinary       = 1
	DataTypeMultistate   = 2
	DataTypeNumeric      = 3
	DataTypeAlphanumeric = 4
)

type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:8080/Scada-LTS",
		Username: "admin",
		Password: "admin",
		Timeout:  defaultTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.BaseURL == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "scada base URL must not be empty")
	}
	if c.Timeout <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "scada timeout must be > 0")
	}

	return nil
}

func (c Config) loginURL() string {
	return fmt.Sprintf("%s/api/auth/%s/%s", strings.TrimRight(c.BaseURL, "/"), c.Username, c.Password)
}

func (c Config) readURL(xid string) string {
	return fmt.Sprintf("%s/api/point_value/getValue/%s", strings.TrimRight(c.BaseURL, "/"), xid)
}

func (c Config) writeURL(xid string, dataType int, value float64) string {
	return fmt.Sprintf("%s/api/point_value/setValue/%s/%d/%g",
		strings.TrimRight(c.BaseURL, "/"), xid, dataType, value)
}
