// Package frames writes per-frame coordinate files in the layout the external
// particle linker consumes.
package frames

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trajlink/trajlink-go/internal/detections"
	"github.com/trajlink/trajlink-go/internal/errors"
)

// FilePattern names frame files with fixed-width zero padding so lexicographic
// and numeric order coincide. Frame numbers on disk are zero-based.
const FilePattern = "frame_%06d.txt"

// Export writes one coordinate file per frame of the video into dir, covering
// the dense range 0..MaxFrame-1 even for frames with no detections. The linker
// expects a gap-free frame sequence.
//
// The table must not be empty; callers skip empty videos and record a notice
// instead. Returns the number of frame files written.
func Export(table *detections.Table, dir string) (int, error) {
	if table.Empty() {
		return 0, errors.Newf("video %s has no detections, nothing to export", table.Video).
			Category(errors.CategoryValidation).
			Build()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.New(err).
			Category(errors.CategoryWorkspace).
			Context("dir", dir).
			Build()
	}

	grouped := table.ByFrame()
	maxFrame := table.MaxFrame()

	for frame := 1; frame <= maxFrame; frame++ {
		path := filepath.Join(dir, fmt.Sprintf(FilePattern, frame-1))
		if err := writeFrameFile(path, frame-1, grouped[frame]); err != nil {
			return 0, errors.New(fmt.Errorf("video %s frame %d: %w", table.Video, frame, err)).
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	return maxFrame, nil
}

// writeFrameFile emits the linker's per-frame format: a "frame <n>" first line
// followed by one "x y z" line per detection, z fixed at 0.
func writeFrameFile(path string, frame int, rows []detections.Detection) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "frame %d\n", frame)
	for i := range rows {
		fmt.Fprintf(w, "%.4f %.4f 0\n", rows[i].X, rows[i].Y)
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
