package mysql

import (
	"time"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// clampLimit keeps history queries bounded.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}

// createdAt is the stored timestamp for run, always UTC.
func createdAt(run *domain.Run) time.Time {
	if run.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return run.CreatedAt.UTC()
}
