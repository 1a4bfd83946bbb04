// Package workspace manages isolated per-worker temp directories around one
// linker invocation cycle. A workspace is exclusively owned by one worker and
// removed on every exit path.
package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/trajlink/trajlink-go/internal/conf"
	"github.com/trajlink/trajlink-go/internal/errors"
	"github.com/trajlink/trajlink-go/internal/logging"
)

// Manager creates and removes worker workspaces for one pipeline run.
type Manager struct {
	baseDir     string
	runID       string
	jarPath     string
	copyRuntime bool
	logger      *slog.Logger
}

// Workspace is a worker-private directory tree holding that worker's frame
// files and, when runtime copying is enabled, a private copy of the linker jar.
type Workspace struct {
	Root    string
	BatchID int

	jarPath string
}

// NewManager returns a Manager rooted at the configured base directory
// (the system temp directory when unset).
func NewManager(settings *conf.Settings, runID string) *Manager {
	baseDir := settings.Workspace.BaseDir
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{
		baseDir:     baseDir,
		runID:       runID,
		jarPath:     settings.Linker.JarPath,
		copyRuntime: settings.Linker.CopyRuntime,
		logger:      logging.ForService("workspace"),
	}
}

// Acquire creates a fresh workspace uniquely named by the run and batch
// identifiers. Creation fails if the directory already exists, so two workers
// can never share a workspace.
func (m *Manager) Acquire(batchID int) (*Workspace, error) {
	root := filepath.Join(m.baseDir, fmt.Sprintf("trajlink-%s-w%d", m.runID, batchID))

	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryWorkspace).
			Context("base_dir", m.baseDir).
			Build()
	}
	m.checkDiskSpace()

	if err := os.Mkdir(root, 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("failed to create workspace for batch %d: %w", batchID, err)).
			Category(errors.CategoryWorkspace).
			Context("root", root).
			Build()
	}

	ws := &Workspace{Root: root, BatchID: batchID, jarPath: m.jarPath}

	if m.copyRuntime {
		privateJar := filepath.Join(root, filepath.Base(m.jarPath))
		if err := copyFile(m.jarPath, privateJar); err != nil {
			// Creation already happened, do not leak the directory.
			_ = os.RemoveAll(root)
			return nil, errors.New(fmt.Errorf("failed to copy linker runtime into workspace: %w", err)).
				Category(errors.CategoryWorkspace).
				Context("jar", m.jarPath).
				Build()
		}
		ws.jarPath = privateJar
	}

	if m.logger != nil {
		m.logger.Debug("workspace acquired", "batch", batchID, "root", root)
	}
	return ws, nil
}

// Release removes the workspace tree recursively. It is safe to call on every
// exit path, including after a linker crash that wrote nothing.
func (w *Workspace) Release() error {
	if err := os.RemoveAll(w.Root); err != nil {
		return errors.New(fmt.Errorf("failed to remove workspace for batch %d: %w", w.BatchID, err)).
			Category(errors.CategoryWorkspace).
			Context("root", w.Root).
			Build()
	}
	return nil
}

// JarPath returns the linker jar this workspace's invocations should run:
// the private copy when runtime copying is enabled, the shared jar otherwise.
func (w *Workspace) JarPath() string {
	return w.jarPath
}

// FramesDir returns the directory holding one video's frame files, creating it
// if needed.
func (w *Workspace) FramesDir(video string) (string, error) {
	dir := filepath.Join(w.Root, "frames", video)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.New(err).
			Category(errors.CategoryWorkspace).
			Context("dir", dir).
			Build()
	}
	return dir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
