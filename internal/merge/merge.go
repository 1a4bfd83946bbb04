// Package merge combines per-video linker outputs into one trajectory dataset
// with globally unique identifiers.
package merge

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/trajlink/trajlink-go/internal/detections"
	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/logging"
	"github.com/trajlink/trajlink-go/internal/trajectory"
)

// MorphEpsilon is the pixel radius within which a linked fix is matched back
// to its source detection to recover morphology attributes.
const MorphEpsilon = 0.5

// Input pairs one video's detection table with the trajectory segment file the
// linker produced for it. SegmentFile is empty for videos that were skipped.
type Input struct {
	Table       *detections.Table
	SegmentFile string
}

// rawFix is one parsed linker output row.
type rawFix struct {
	frame   int
	x, y    float64
	localID int
}

// Merge reads every existing segment file, renumbers local trajectory ids into
// a namespace keyed by (video, local id), joins morphology back onto fixes and
// returns one dataset sorted by (video, global id, frame).
func Merge(inputs []Input) (*trajectory.Dataset, error) {
	logger := logging.ForService("merge")

	dataset := &trajectory.Dataset{}
	globalID := 0

	// Deterministic video order regardless of worker completion order.
	ordered := make([]Input, len(inputs))
	copy(ordered, inputs)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Table.Video < ordered[j].Table.Video
	})

	for _, in := range ordered {
		if in.SegmentFile == "" {
			continue
		}
		if len(dataset.MorphColumns) == 0 {
			dataset.MorphColumns = in.Table.MorphColumns
		}

		byLocal, err := loadSegment(in.SegmentFile)
		if err != nil {
			return nil, err
		}

		localIDs := make([]int, 0, len(byLocal))
		for id := range byLocal {
			localIDs = append(localIDs, id)
		}
		sort.Ints(localIDs)

		for _, localID := range localIDs {
			globalID++
			tr := trajectory.Trajectory{
				Video:    in.Table.Video,
				LocalID:  localID,
				GlobalID: globalID,
				Key:      trajectory.NewKey(in.Table.Video, localID),
			}

			for _, raw := range byLocal[localID] {
				fix := trajectory.Fix{
					Video:    in.Table.Video,
					GlobalID: globalID,
					LocalID:  localID,
					Frame:    raw.frame,
					X:        raw.x,
					Y:        raw.y,
				}
				// The linker emits zero-based frames; the detection table's
				// Slice column is 1-based.
				if morph, ok := in.Table.FindMorphology(raw.frame+1, raw.x, raw.y, MorphEpsilon); ok {
					fix.Morph = morph
				} else {
					fix.Morph = make([]string, len(in.Table.MorphColumns))
				}
				tr.Fixes = append(tr.Fixes, fix)
			}

			dataset.Trajectories = append(dataset.Trajectories, tr)
		}

		if logger != nil {
			logger.Debug("merged video", "video", in.Table.Video, "trajectories", len(localIDs))
		}
	}

	dataset.Sort()

	if logger != nil {
		logger.Info("merge complete",
			"videos", len(dataset.Videos()),
			"trajectories", len(dataset.Trajectories),
			"fixes", len(dataset.Fixes()))
	}

	return dataset, nil
}

// loadSegment parses one linker output file: tab-delimited rows of
// frame, x, y, local trajectory id.
func loadSegment(path string) (map[int][]rawFix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	byLocal := make(map[int][]rawFix)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, errors.Newf("segment %s line %d: expected 4 fields, got %d",
				filepath.Base(path), lineNo, len(fields)).
				Category(errors.CategoryFileParsing).
				Build()
		}

		raw, err := parseSegmentRow(fields)
		if err != nil {
			return nil, errors.New(fmt.Errorf("segment %s line %d: %w", filepath.Base(path), lineNo, err)).
				Category(errors.CategoryFileParsing).
				Build()
		}
		byLocal[raw.localID] = append(byLocal[raw.localID], raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	return byLocal, nil
}

func parseSegmentRow(fields []string) (rawFix, error) {
	frame, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return rawFix{}, fmt.Errorf("failed to parse frame %q", fields[0])
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return rawFix{}, fmt.Errorf("failed to parse x %q", fields[1])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return rawFix{}, fmt.Errorf("failed to parse y %q", fields[2])
	}
	localID, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return rawFix{}, fmt.Errorf("failed to parse trajectory id %q", fields[3])
	}
	return rawFix{frame: frame, x: x, y: y, localID: localID}, nil
}
