package collector

// PointSource provides the ordered list of point names to request each
// cycle. Consulted fresh at every cycle boundary so a hot-reloaded
// catalog takes effect without restarting the loop.
type PointSource interface {
	ListNames() []string
}

// DataCallback is invoked synchronously on the collection goroutine for
// every collected snapshot. Callbacks must be fast and non-blocking;
// long-running work should hand off to its own goroutine.
type DataCallback func(*Snapshot)

// ErrorCallback is invoked synchronously for every engine-level cycle
// failure.
type ErrorCallback func(string)

// Status is the externally visible state of the collector.
type Status struct {
	Running          bool     `json:"running"`
	SamplesCollected uint64   `json:"samples_collected"`
	ErrorsCount      uint64   `json:"errors_count"`
	BufferSize       int      `json:"buffer_size"`
	BufferMax        int      `json:"buffer_max"`
	SampleRateHz     float64  `json:"sample_rate_hz"`
	UptimeSeconds    float64  `json:"uptime_seconds"`
	Points           []string `json:"points"`
}

// Trend is the three-way momentum classification of a point's recent
// history.
type Trend string

const (
	TrendRising       Trend = "rising"
	TrendFalling      Trend = "falling"
	TrendStable       Trend = "stable"
	TrendInsufficient Trend = "insufficient"
)

// PointStats holds descriptive statistics for one point over the
// retained history. Missing samples are excluded.
type PointStats struct {
	Point   string  `json:"point"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Current float64 `json:"current"`
	Trend   Trend   `json:"trend"`
}
