package workspace

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

const (
	jobsSubdir    = "jobs"
	uploadsSubdir = "uploads"
)

// Manager handles workspace operations (both temporary and persistent).
type Manager struct {
	baseDir    string
	rootDir    string
	persistent bool
	now        func() time.Time
}

// NewManager creates a workspace manager with an ephemeral timestamped directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, now: time.Now}
}

// NewPersistentManager creates a workspace manager rooted at dataDir.
// The directory is never removed by Cleanup.
func NewPersistentManager(dataDir string) *Manager {
	if dataDir == "" {
		dataDir = filepath.Join(os.TempDir(), "dotrewrite")
	}
	return &Manager{baseDir: dataDir, rootDir: dataDir, persistent: true, now: time.Now}
}

// Create prepares the workspace directories.
func (m *Manager) Create() error {
	if !m.persistent {
		m.rootDir = filepath.Join(m.baseDir, "dotrewrite-"+m.now().Format("20060102-150405.000000000"))
	}
	for _, dir := range []string{m.rootDir, m.JobsDir(), m.UploadsDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create workspace directory").
				WithContext("path", dir).
				Build()
		}
	}
	if m.persistent {
		slog.Info("Using persistent workspace", logfields.Path(m.rootDir))
	} else {
		slog.Debug("Created workspace", logfields.Path(m.rootDir))
	}
	return nil
}

// GetPath returns the workspace root.
func (m *Manager) GetPath() string {
	return m.rootDir
}

// JobsDir returns the directory holding one subdirectory per job.
func (m *Manager) JobsDir() string {
	return filepath.Join(m.rootDir, jobsSubdir)
}

// UploadsDir returns the spool directory for incoming archives.
func (m *Manager) UploadsDir() string {
	return filepath.Join(m.rootDir, uploadsSubdir)
}

// JobDir creates and returns the directory for job id.
func (m *Manager) JobDir(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	dir := filepath.Join(m.JobsDir(), id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create job directory").
			WithContext("job_id", id).
			Build()
	}
	return dir, nil
}

// RemoveJob deletes the directory of job id. A missing directory is not an error.
func (m *Manager) RemoveJob(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(m.JobsDir(), id)); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to remove job directory").
			WithContext("job_id", id).
			Build()
	}
	return nil
}

// Spool copies r into a new file under the uploads directory. The returned
// release func closes and removes the file and is safe to call more than once.
func (m *Manager) Spool(r io.Reader) (*os.File, int64, func() error, error) {
	return Spool(m.UploadsDir(), r)
}

// TempSpooler spools into the system temp directory, for callers without a
// workspace.
type TempSpooler struct{}

func (TempSpooler) Spool(r io.Reader) (*os.File, int64, func() error, error) {
	return Spool("", r)
}

// Spool copies r into a new file in dir ("" means os.TempDir) and rewinds it.
// release closes and removes the file; calling it again is a no-op.
func Spool(dir string, r io.Reader) (*os.File, int64, func() error, error) {
	f, err := os.CreateTemp(dir, "upload-*.zip")
	if err != nil {
		return nil, 0, nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create spool file").Build()
	}
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		_ = f.Close()
		if rmErr := os.Remove(f.Name()); rmErr != nil && !os.IsNotExist(rmErr) {
			return derrors.WrapError(rmErr, derrors.CategoryFileSystem, "failed to remove spool file").Build()
		}
		return nil
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = release()
		return nil, 0, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = release()
		return nil, 0, nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to rewind spool file").Build()
	}
	return f, n, release, nil
}

// Cleanup removes an ephemeral workspace. Persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.rootDir == "" {
		return nil
	}
	if m.persistent {
		slog.Debug("Skipping cleanup for persistent workspace", logfields.Path(m.rootDir))
		return nil
	}
	if err := os.RemoveAll(m.rootDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.rootDir))
	m.rootDir = ""
	return nil
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return derrors.ValidationError("invalid job id").WithContext("job_id", id).Build()
	}
	return nil
}
