package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/shikhar109/Downloder/internal/shared"
)

// Workspace is an isolated filesystem scope owned by exactly one retrieval
// for its whole lifetime. It is released exactly once; concurrent requests
// never share a directory.
type Workspace struct {
	ID   string
	Root string

	logger   *log.Logger
	released atomic.Bool
}

// Release removes the workspace directory. Idempotent: a second call is a
// no-op. Removal failures are logged, never escalated, so cleanup can't
// fail a response.
func (w *Workspace) Release() {
	if !w.released.CompareAndSwap(false, true) {
		return
	}
	if err := os.RemoveAll(w.Root); err != nil && w.logger != nil {
		w.logger.Warn("failed to remove workspace", "id", w.ID, "root", w.Root, "error", err)
	}
}

// Released reports whether Release has run.
func (w *Workspace) Released() bool {
	return w.released.Load()
}

// WorkspaceManager allocates collision-free per-request directories under a
// single root.
type WorkspaceManager struct {
	root   string
	logger *log.Logger
}

// NewWorkspaceManager creates a manager rooted at root, defaulting to the
// system temp directory.
func NewWorkspaceManager(root string, logger *log.Logger) *WorkspaceManager {
	if root == "" {
		root = os.TempDir()
	}
	return &WorkspaceManager{root: root, logger: logger}
}

// Allocate creates a fresh uniquely-named directory for one retrieval.
func (m *WorkspaceManager) Allocate() (*Workspace, error) {
	id := shared.GenerateID()
	dir := filepath.Join(m.root, "cutcraft_"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to allocate workspace: %w", err)
	}
	return &Workspace{ID: id, Root: dir, logger: m.logger}, nil
}
