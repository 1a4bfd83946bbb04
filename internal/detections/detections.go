// Package detections loads per-video particle detection tables produced by the
// external detection tool.
//
// A detection table is a tab-delimited file with a header row. The Slice column
// carries the 1-based frame index, X and Y the particle centroid. Mass-centre
// columns XM/YM are accepted when X/Y are absent. All remaining columns are
// morphology attributes, opaque to this pipeline and carried through to the
// merged dataset by name.
package detections

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/trajlink/trajlink-go/internal/errors"
)

// Detection is one particle in one frame of one video.
type Detection struct {
	Frame int     // 1-based frame index from the Slice column
	X     float64 // centroid x in pixels
	Y     float64 // centroid y in pixels
	Morph []string // morphology attribute values, aligned with Table.MorphColumns
}

// Table holds all detections of one video.
type Table struct {
	Video        string // video identifier, the table file name without extension
	Path         string // source file path
	MorphColumns []string
	Rows         []Detection
}

// Empty reports whether the table contains no detections at all.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// MaxFrame returns the highest 1-based frame index present, 0 for an empty table.
func (t *Table) MaxFrame() int {
	maxFrame := 0
	for i := range t.Rows {
		if t.Rows[i].Frame > maxFrame {
			maxFrame = t.Rows[i].Frame
		}
	}
	return maxFrame
}

// ByFrame groups detections by their 1-based frame index, preserving row order
// within each frame.
func (t *Table) ByFrame() map[int][]Detection {
	grouped := make(map[int][]Detection)
	for i := range t.Rows {
		grouped[t.Rows[i].Frame] = append(grouped[t.Rows[i].Frame], t.Rows[i])
	}
	return grouped
}

// FindMorphology returns the morphology values of the detection in the given
// frame closest to (x, y), provided it lies within eps pixels. Used to join
// attributes back onto linked trajectory fixes.
func (t *Table) FindMorphology(frame int, x, y, eps float64) ([]string, bool) {
	bestDist := math.Inf(1)
	var best []string
	for i := range t.Rows {
		if t.Rows[i].Frame != frame {
			continue
		}
		dx := t.Rows[i].X - x
		dy := t.Rows[i].Y - y
		dist := math.Hypot(dx, dy)
		if dist < bestDist {
			bestDist = dist
			best = t.Rows[i].Morph
		}
	}
	if bestDist <= eps {
		return best, true
	}
	return nil, false
}

// LoadTable reads one detection table from disk. An empty table (header only)
// is valid and returned with no rows.
func LoadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	video := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table := &Table{Video: video, Path: path}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
		return nil, errors.Newf("detection table %s is empty, expected a header row", filepath.Base(path)).
			Category(errors.CategoryFileParsing).
			Build()
	}

	header := strings.Split(scanner.Text(), "\t")
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, errors.New(fmt.Errorf("detection table %s: %w", filepath.Base(path), err)).
			Category(errors.CategoryFileParsing).
			Build()
	}
	table.MorphColumns = cols.morphNames(header)

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, errors.Newf("detection table %s line %d: expected %d fields, got %d",
				filepath.Base(path), lineNo, len(header), len(fields)).
				Category(errors.CategoryFileParsing).
				Build()
		}

		row, err := cols.parseRow(fields)
		if err != nil {
			return nil, errors.New(fmt.Errorf("detection table %s line %d: %w", filepath.Base(path), lineNo, err)).
				Category(errors.CategoryFileParsing).
				Build()
		}
		table.Rows = append(table.Rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	return table, nil
}

// LoadDir loads one table per file matching pattern under dir, in lexicographic
// file name order so repeated runs see videos in the same sequence.
func LoadDir(dir, pattern string) ([]*Table, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Context("pattern", pattern).
			Build()
	}
	if len(matches) == 0 {
		return nil, errors.Newf("no detection tables matching %q found in %s", pattern, dir).
			Category(errors.CategoryNotFound).
			Build()
	}
	sort.Strings(matches)

	tables := make([]*Table, 0, len(matches))
	for _, path := range matches {
		table, err := LoadTable(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// columnLayout records which header indices carry the required columns.
type columnLayout struct {
	slice int
	x     int
	y     int
}

func resolveColumns(header []string) (*columnLayout, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	cols := &columnLayout{slice: -1, x: -1, y: -1}
	if i, ok := index["Slice"]; ok {
		cols.slice = i
	}
	if i, ok := index["X"]; ok {
		cols.x = i
	} else if i, ok := index["XM"]; ok {
		cols.x = i
	}
	if i, ok := index["Y"]; ok {
		cols.y = i
	} else if i, ok := index["YM"]; ok {
		cols.y = i
	}

	switch {
	case cols.slice < 0:
		return nil, fmt.Errorf("missing required column Slice")
	case cols.x < 0:
		return nil, fmt.Errorf("missing coordinate column X or XM")
	case cols.y < 0:
		return nil, fmt.Errorf("missing coordinate column Y or YM")
	}
	return cols, nil
}

// morphNames returns the header names not consumed as frame or coordinates.
func (c *columnLayout) morphNames(header []string) []string {
	names := make([]string, 0, len(header))
	for i, name := range header {
		if i == c.slice || i == c.x || i == c.y {
			continue
		}
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			trimmed = fmt.Sprintf("col%d", i)
		}
		names = append(names, trimmed)
	}
	return names
}

func (c *columnLayout) parseRow(fields []string) (Detection, error) {
	frame, err := strconv.Atoi(strings.TrimSpace(fields[c.slice]))
	if err != nil {
		return Detection{}, fmt.Errorf("failed to parse Slice value %q", fields[c.slice])
	}
	if frame < 1 {
		return Detection{}, fmt.Errorf("frame index %d out of range, Slice is 1-based", frame)
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(fields[c.x]), 64)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to parse X value %q", fields[c.x])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[c.y]), 64)
	if err != nil {
		return Detection{}, fmt.Errorf("failed to parse Y value %q", fields[c.y])
	}

	morph := make([]string, 0, len(fields))
	for i, v := range fields {
		if i == c.slice || i == c.x || i == c.y {
			continue
		}
		morph = append(morph, strings.TrimSpace(v))
	}

	return Detection{Frame: frame, X: x, Y: y, Morph: morph}, nil
}
