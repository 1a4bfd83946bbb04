package detections

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trajlink/trajlink-go/internal/errors"
)

func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleTable = "Area\tMean\tX\tY\tSlice\n" +
	"12.5\t101.2\t10.0\t20.0\t1\n" +
	"13.1\t99.8\t11.5\t21.0\t1\n" +
	"12.9\t100.4\t12.0\t22.5\t2\n"

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "video01.txt", sampleTable)

	table, err := LoadTable(path)
	require.NoError(t, err)

	assert.Equal(t, "video01", table.Video)
	assert.Equal(t, []string{"Area", "Mean"}, table.MorphColumns)
	require.Len(t, table.Rows, 3)

	first := table.Rows[0]
	assert.Equal(t, 1, first.Frame)
	assert.InDelta(t, 10.0, first.X, 1e-9)
	assert.InDelta(t, 20.0, first.Y, 1e-9)
	assert.Equal(t, []string{"12.5", "101.2"}, first.Morph)

	assert.Equal(t, 2, table.MaxFrame())
	assert.False(t, table.Empty())
}

func TestLoadTableMassCentreFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "video02.txt",
		"XM\tYM\tSlice\n1.0\t2.0\t1\n")

	table, err := LoadTable(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.InDelta(t, 1.0, table.Rows[0].X, 1e-9)
	assert.InDelta(t, 2.0, table.Rows[0].Y, 1e-9)
	assert.Empty(t, table.MorphColumns)
}

func TestLoadTableHeaderOnlyIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "quiet.txt", "Area\tX\tY\tSlice\n")

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.True(t, table.Empty())
	assert.Zero(t, table.MaxFrame())
}

func TestLoadTableErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"missing slice", "X\tY\n1.0\t2.0\n", "missing required column Slice"},
		{"missing coordinates", "Slice\tArea\n1\t12.5\n", "missing coordinate column"},
		{"ragged row", "X\tY\tSlice\n1.0\t2.0\n", "expected 3 fields, got 2"},
		{"bad numeric", "X\tY\tSlice\nx\t2.0\t1\n", "failed to parse X"},
		{"zero frame", "X\tY\tSlice\n1.0\t2.0\t0\n", "Slice is 1-based"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTable(t, dir, tt.name+".txt", tt.content)
			_, err := LoadTable(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
			assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
		})
	}
}

func TestByFramePreservesRowOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "video03.txt", sampleTable)

	table, err := LoadTable(path)
	require.NoError(t, err)

	grouped := table.ByFrame()
	require.Len(t, grouped[1], 2)
	require.Len(t, grouped[2], 1)
	assert.InDelta(t, 10.0, grouped[1][0].X, 1e-9)
	assert.InDelta(t, 11.5, grouped[1][1].X, 1e-9)
}

func TestFindMorphology(t *testing.T) {
	dir := t.TempDir()
	path := writeTable(t, dir, "video04.txt", sampleTable)

	table, err := LoadTable(path)
	require.NoError(t, err)

	morph, ok := table.FindMorphology(1, 11.4, 21.1, 0.5)
	require.True(t, ok)
	assert.Equal(t, []string{"13.1", "99.8"}, morph)

	_, ok = table.FindMorphology(1, 50.0, 50.0, 0.5)
	assert.False(t, ok)

	_, ok = table.FindMorphology(9, 10.0, 20.0, 0.5)
	assert.False(t, ok)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "b.txt", sampleTable)
	writeTable(t, dir, "a.txt", sampleTable)
	writeTable(t, dir, "ignored.csv", sampleTable)

	tables, err := LoadDir(dir, "*.txt")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "a", tables[0].Video)
	assert.Equal(t, "b", tables[1].Video)
}

func TestLoadDirNoMatches(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadDir(dir, "*.txt")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
