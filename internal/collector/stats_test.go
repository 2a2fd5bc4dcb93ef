package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededCollector(t *testing.T, series map[string][]float64) *Collector {
	t.Helper()

	ring, err := NewRing(64)
	require.NoError(t, err)

	length := 0
	for _, values := range series {
		if len(values) > length {
			length = len(values)
		}
	}

	base := time.Now().Add(-time.Duration(length) * time.Second)
	for i := 0; i < length; i++ {
		values := make(map[string]float64, len(series))
		for name, points := range series {
			if i < len(points) {
				values[name] = points[i]
			}
		}
		ring.Append(&Snapshot{Timestamp: base.Add(time.Duration(i) * time.Second), Values: values})
	}

	return &Collector{cfg: Config{SampleRateHz: 1, BufferSeconds: 64}, ring: ring}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   Trend
	}{
		{
			name:   "insufficient below window",
			series: []float64{1, 2, 3},
			want:   TrendInsufficient,
		},
		{
			name:   "rising twenty percent",
			series: []float64{10, 10, 10, 10, 10, 12, 12, 12, 12, 12},
			want:   TrendRising,
		},
		{
			name:   "falling twenty percent",
			series: []float64{12, 12, 12, 12, 12, 10, 10, 10, 10, 10},
			want:   TrendFalling,
		},
		{
			name:   "constant is stable",
			series: []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7},
			want:   TrendStable,
		},
		{
			name:   "small drift within threshold",
			series: []float64{100, 100, 100, 100, 100, 102, 102, 102, 102, 102},
			want:   TrendStable,
		},
		{
			name:   "short history compares against earliest window",
			series: []float64{10, 10, 10, 10, 10, 20, 20},
			want:   TrendRising,
		},
		{
			name:   "zero baseline does not divide by zero",
			series: []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1},
			want:   TrendRising,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrend(tt.series))
		})
	}
}

func TestGetStatistics(t *testing.T) {
	c := seededCollector(t, map[string][]float64{
		"pt1": {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	})

	stats, err := c.GetStatistics("pt1")
	require.NoError(t, err)

	assert.Equal(t, "pt1", stats.Point)
	assert.Equal(t, 10, stats.Count)
	assert.InDelta(t, 5.5, stats.Mean, 1e-9)
	assert.InDelta(t, 1.0, stats.Min, 1e-9)
	assert.InDelta(t, 10.0, stats.Max, 1e-9)
	assert.InDelta(t, 10.0, stats.Current, 1e-9)
	assert.InDelta(t, 3.0276503540974917, stats.StdDev, 1e-9)
	assert.Equal(t, TrendRising, stats.Trend)
}

func TestGetStatisticsExcludesMissing(t *testing.T) {
	nan := Missing()
	c := seededCollector(t, map[string][]float64{
		"pt1": {1, nan, 3, nan, 5},
	})

	stats, err := c.GetStatistics("pt1")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Count, "missing samples are absent, not zero")
	assert.InDelta(t, 3.0, stats.Mean, 1e-9)
	assert.InDelta(t, 5.0, stats.Current, 1e-9)
	assert.Equal(t, TrendInsufficient, stats.Trend)
}

func TestGetStatisticsUnknownPoint(t *testing.T) {
	c := seededCollector(t, map[string][]float64{"pt1": {1, 2}})

	_, err := c.GetStatistics("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestGetStatisticsEmptyBuffer(t *testing.T) {
	c := seededCollector(t, nil)

	_, err := c.GetStatistics("pt1")
	require.Error(t, err)
}

func TestGetStatisticsAllMissing(t *testing.T) {
	nan := Missing()
	c := seededCollector(t, map[string][]float64{"pt1": {nan, nan}})

	_, err := c.GetStatistics("pt1")
	require.Error(t, err)
}

func TestGetStatisticsSingleSample(t *testing.T) {
	c := seededCollector(t, map[string][]float64{"pt1": {4.2}})

	stats, err := c.GetStatistics("pt1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.Zero(t, stats.StdDev)
	assert.Equal(t, TrendInsufficient, stats.Trend)
}

func TestAllStatistics(t *testing.T) {
	nan := Missing()
	c := seededCollector(t, map[string][]float64{
		"pt1": {1, 2, 3},
		"pt2": {10, 20, 30},
		"bad": {nan, nan, nan},
	})

	stats, err := c.AllStatistics()
	require.NoError(t, err)

	assert.Len(t, stats, 2, "points with no valid samples are omitted")
	assert.InDelta(t, 2.0, stats["pt1"].Mean, 1e-9)
	assert.InDelta(t, 20.0, stats["pt2"].Mean, 1e-9)
}

func TestAllStatisticsEmpty(t *testing.T) {
	c := seededCollector(t, nil)

	_, err := c.AllStatistics()
	require.Error(t, err)
}
