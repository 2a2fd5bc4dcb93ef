package scada

import "time"

// PointValue represents one value read from a SCADA point.
type PointValue struct {
	XID       string
	Value     float64
	Timestamp time.Time
	Raw       map[string]any
}

// Resolver translates a logical point name into a SCADA XID. Unknown
// names must pass through unchanged so lookups never fail.
type Resolver interface {
	Resolve(name string) string
}

// Reader is the read-side contract consumed by the data collector.
type Reader interface {
	ReadPoint(nameOrXID string) (*PointValue, error)
	ReadMultiple(names []string) map[string]*PointValue
	IsConnected() bool
	LastError() string
}

// Writer is the write-side contract consumed by action approval.
type Writer interface {
	WritePoint(nameOrXID string, value float64, dataType int) error
}
