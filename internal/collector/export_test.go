package collector

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	nan := Missing()
	c := seededCollector(t, map[string][]float64{
		"pt2": {10, nan, 30},
		"pt1": {1, 2, 3},
	})

	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf, FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus one row per snapshot")

	assert.Equal(t, []string{"timestamp", "pt1", "pt2"}, records[0])
	assert.Equal(t, []string{"1", "10"}, records[1][1:])
	assert.Equal(t, []string{"2", ""}, records[2][1:], "missing value renders as empty cell")
	assert.Equal(t, []string{"3", "30"}, records[3][1:])
	assert.NotEmpty(t, records[1][0])
}

func TestExportCSVColumnUnion(t *testing.T) {
	c := seededCollector(t, map[string][]float64{
		"old": {1, 2},
		"new": {10, 20, 30},
	})

	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf, FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"timestamp", "new", "old"}, records[0])
	assert.Equal(t, "", records[3][2], "point absent from a snapshot yields an empty cell")
}

func TestExportJSON(t *testing.T) {
	nan := Missing()
	c := seededCollector(t, map[string][]float64{
		"pt1": {1, nan},
	})

	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf, FormatJSON))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)

	assert.Equal(t, 1.0, records[0]["pt1"])
	assert.Nil(t, records[1]["pt1"], "missing value renders as null")
	assert.NotEmpty(t, records[0]["timestamp"])
}

func TestExportEmptyBuffer(t *testing.T) {
	c := seededCollector(t, nil)

	var buf bytes.Buffer
	require.Error(t, c.Export(&buf, FormatCSV))
}

func TestExportUnknownFormat(t *testing.T) {
	c := seededCollector(t, map[string][]float64{"pt1": {1}})

	var buf bytes.Buffer
	err := c.Export(&buf, "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx")
}
