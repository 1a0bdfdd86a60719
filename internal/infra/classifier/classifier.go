package classifier

import (
	"io/fs"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// Classifier partitions files by extension. Matching is case-sensitive;
// .gitignore is not honored and symlinks are not followed.
type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// Classify walks root recursively. Unreadable subtrees are skipped; an
// error is returned only when root itself cannot be walked.
func (Classifier) Classify(root string) (domain.Inventory, error) {
	var inv domain.Inventory
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			klog.V(2).Infof("classify: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch bucketOf(d.Name()) {
		case bucketPython:
			inv.Python = append(inv.Python, path)
		case bucketJSTS:
			inv.JSTS = append(inv.JSTS, path)
		}
		return nil
	})
	return inv, err
}

type bucket int

const (
	bucketNone bucket = iota
	bucketPython
	bucketJSTS
)

func bucketOf(name string) bucket {
	switch {
	case strings.HasSuffix(name, ".py"):
		return bucketPython
	case strings.HasSuffix(name, ".js"), strings.HasSuffix(name, ".ts"), strings.HasSuffix(name, ".tsx"):
		return bucketJSTS
	default:
		return bucketNone
	}
}
