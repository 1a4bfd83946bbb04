package workspace

import (
	"github.com/shirou/gopsutil/v3/disk"
)

// lowSpaceThreshold is the used-percent of the workspace volume above which
// acquisition logs a warning. Frame exports for a long video can run to
// gigabytes, and a full volume surfaces as an opaque linker crash otherwise.
const lowSpaceThreshold = 90.0

func (m *Manager) checkDiskSpace() {
	usage, err := disk.Usage(m.baseDir)
	if err != nil {
		return
	}
	if usage.UsedPercent >= lowSpaceThreshold && m.logger != nil {
		m.logger.Warn("low disk space on workspace volume",
			"base_dir", m.baseDir,
			"used_percent", usage.UsedPercent,
			"free_bytes", usage.Free)
	}
}
