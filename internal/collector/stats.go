package collector

import (
	"codeberg.org/mutker/scadactl/internal/errors"
	"gonum.org/v1/gonum/stat"
)

// Trend heuristic constants. This is a two-window momentum
// comparison, not a statistical
// significance test; the window sizes and thresholds are tunable, not
// principled.
const (
	trendWindow       = 5
	trendEpsilon      = 1e-10
	trendThresholdPct = 5.0
)

// GetStatistics computes descriptive statistics and the trend
// classification for one point over the full retained history. Missing
// samples are excluded. An empty history or unknown point name is a
// reported error, not a crash.
func (c *Collector) GetStatistics(pointName string) (*PointStats, error) {
	errFactory := errors.New()

	snapshots := c.ring.Snapshots()
	if len(snapshots) == 0 {
		return nil, errFactory.New(ErrEmptyBuffer)
	}

	series := seriesFor(snapshots, pointName)
	if series == nil {
		return nil, errFactory.WithData(ErrUnknownPoint, pointName)
	}
	if len(series) == 0 {
		return nil, errFactory.WithMessage(ErrEmptyBuffer, "no valid samples for "+pointName)
	}

	return pointStats(pointName, series), nil
}

// AllStatistics computes per-point statistics for every point present in
// the retained history. Points with no valid samples are omitted.
func (c *Collector) AllStatistics() (map[string]PointStats, error) {
	snapshots := c.ring.Snapshots()
	if len(snapshots) == 0 {
		return nil, errors.New().New(ErrEmptyBuffer)
	}

	seen := make(map[string]struct{})
	stats := make(map[string]PointStats)
	for _, s := range snapshots {
		for name := range s.Values {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}

			series := seriesFor(snapshots, name)
			if len(series) == 0 {
				continue
			}
			stats[name] = *pointStats(name, series)
		}
	}

	return stats, nil
}

// seriesFor extracts the chronological, missing-free value series for a
// point. Returns nil when the point never appears in the history.
func seriesFor(snapshots []*Snapshot, name string) []float64 {
	found := false
	series := make([]float64, 0, len(snapshots))
	for _, s := range snapshots {
		value, ok := s.Values[name]
		if !ok {
			continue
		}
		found = true
		if IsMissing(value) {
			continue
		}
		series = append(series, value)
	}

	if !found {
		return nil
	}

	return series
}

func pointStats(name string, series []float64) *PointStats {
	minVal, maxVal := series[0], series[0]
	for _, v := range series[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	stddev := 0.0
	if len(series) > 1 {
		stddev = stat.StdDev(series, nil)
	}

	return &PointStats{
		Point:   name,
		Count:   len(series),
		Mean:    stat.Mean(series, nil),
		StdDev:  stddev,
		Min:     minVal,
		Max:     maxVal,
		Current: series[len(series)-1],
		Trend:   classifyTrend(series),
	}
}

// classifyTrend compares the mean of the most recent window against the
// window preceding it (or the earliest window when history is short).
func classifyTrend(series []float64) Trend {
	if len(series) < trendWindow {
		return TrendInsufficient
	}

	recent := stat.Mean(series[len(series)-trendWindow:], nil)

	var older float64
	if len(series) >= 2*trendWindow {
		older = stat.Mean(series[len(series)-2*trendWindow:len(series)-trendWindow], nil)
	} else {
		older = stat.Mean(series[:trendWindow], nil)
	}

	diffPct := (recent - older) / (older + trendEpsilon) * 100

	switch {
	case diffPct > trendThresholdPct:
		return TrendRising
	case diffPct < -trendThresholdPct:
		return TrendFalling
	default:
		return TrendStable
	}
}
