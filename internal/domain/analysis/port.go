package analysis

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Repository lookups for unknown runs.
var ErrNotFound = errors.New("analysis run not found")

// Runner port (executes an external tool). Run never fails: every launch or
// execution problem is reported through RunResult.
type Runner interface {
	Run(ctx context.Context, cmd Command) RunResult
}

// Fetcher port (clones a remote repository into a parent directory)
type Fetcher interface {
	Fetch(ctx context.Context, url, parentDir string) FetchResult
}

// Classifier port (partitions a workspace by language)
type Classifier interface {
	Classify(root string) (Inventory, error)
}

// ArtifactStore port (key -> text blob storage)
type ArtifactStore interface {
	PutText(ctx context.Context, key, contentType, body string) (string, error)
}

// Repository port (run history)
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, id RunID) (*Run, error)
	Latest(ctx context.Context, limit int) ([]*Run, error)
}
