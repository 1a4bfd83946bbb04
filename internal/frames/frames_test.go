package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trajlink/trajlink-go/internal/detections"
)

func sampleTable() *detections.Table {
	return &detections.Table{
		Video: "video01",
		Rows: []detections.Detection{
			{Frame: 1, X: 10.0, Y: 20.0},
			{Frame: 1, X: 11.5, Y: 21.0},
			{Frame: 3, X: 12.0, Y: 22.5},
		},
	}
}

func TestExportWritesDenseFrameSequence(t *testing.T) {
	dir := t.TempDir()

	n, err := Export(sampleTable(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"frame_000000.txt", "frame_000001.txt", "frame_000002.txt"}, names)
}

func TestExportFrameFileFormat(t *testing.T) {
	dir := t.TempDir()

	_, err := Export(sampleTable(), dir)
	require.NoError(t, err)

	// Frame with two detections.
	data, err := os.ReadFile(filepath.Join(dir, "frame_000000.txt"))
	require.NoError(t, err)
	assert.Equal(t, "frame 0\n10.0000 20.0000 0\n11.5000 21.0000 0\n", string(data))

	// Gap frame has only the header line.
	data, err = os.ReadFile(filepath.Join(dir, "frame_000001.txt"))
	require.NoError(t, err)
	assert.Equal(t, "frame 1\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "frame_000002.txt"))
	require.NoError(t, err)
	assert.Equal(t, "frame 2\n12.0000 22.5000 0\n", string(data))
}

func TestExportRejectsEmptyTable(t *testing.T) {
	dir := t.TempDir()

	_, err := Export(&detections.Table{Video: "quiet"}, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no detections")
}

func TestFilePatternOrdering(t *testing.T) {
	// Lexicographic order of generated names must match numeric order.
	prev := ""
	for frame := 0; frame < 1500; frame += 13 {
		name := fmt.Sprintf(FilePattern, frame)
		assert.Greater(t, name, prev)
		prev = name
	}
}
