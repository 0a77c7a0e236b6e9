package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clearsight-video/inspect-api/log"
)

// Handle is a scoped per-job temp directory. Acquire and Release are the
// only way to obtain and destroy one; a job exclusively owns its Handle for
// the inspection window.
type Handle struct {
	JobId string
	Path  string
}

// Manager allocates and releases per-job workspaces rooted under BasePath.
type Manager struct {
	BasePath string
}

func NewManager(basePath string) *Manager {
	return &Manager{BasePath: basePath}
}

// Acquire creates a private directory for jobId. Failure to create it is a
// fatal job error (callers translate this into errorKind=WorkspaceError).
func (m *Manager) Acquire(jobId string) (Handle, error) {
	path := filepath.Join(m.BasePath, jobId)
	if err := os.MkdirAll(path, 0755); err != nil {
		return Handle{}, fmt.Errorf("creating workspace for job %s: %w", jobId, err)
	}
	return Handle{JobId: jobId, Path: path}, nil
}

// Release deletes the workspace directory recursively. It is idempotent:
// releasing an already-released or never-acquired handle is not an error.
// Failure to release is logged but never propagated — per the orchestrator's
// contract, workspace release never blocks a job from reaching a terminal
// status.
func (m *Manager) Release(h Handle) {
	if h.Path == "" {
		return
	}
	if err := os.RemoveAll(h.Path); err != nil {
		log.LogNoRequestID("failed to release workspace", "job_id", h.JobId, "path", h.Path, "err", err)
	}
}
