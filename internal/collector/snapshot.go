package collector

import (
	"math"
	"time"

	"codeberg.org/mutker/scadactl/internal/scada"
)

// Snapshot is one timestamped read of all requested points. Values holds
// one entry per requested name; points that failed to read hold the
// missing sentinel. A snapshot is immutable once constructed.
type Snapshot struct {
	Timestamp time.Time
	Values    map[string]float64
	Raw       map[string]*scada.PointValue
}

// Missing returns the sentinel recorded for a point that failed to read.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether a value is the missing sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
