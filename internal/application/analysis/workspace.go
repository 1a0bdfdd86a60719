package analysis

import (
	"os"
	"sync"

	"k8s.io/klog/v2"
)

// Workspace is the ephemeral directory holding one cloned repository.
type Workspace struct {
	Dir      string
	RepoPath string

	once sync.Once
	err  error
}

// NewWorkspace creates a fresh directory under base (os.TempDir when empty).
func NewWorkspace(base string) (*Workspace, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, err
		}
	}
	dir, err := os.MkdirTemp(base, "repo-audit-*")
	if err != nil {
		return nil, err
	}
	return &Workspace{Dir: dir}, nil
}

// Close removes the workspace. Only the first call does any work.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.Dir)
		if w.err != nil {
			klog.Errorf("remove workspace %s: %v", w.Dir, w.err)
		}
	})
	return w.err
}
