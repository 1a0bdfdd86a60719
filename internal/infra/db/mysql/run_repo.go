package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS repo_analyses (
  id             VARCHAR(64)  NOT NULL PRIMARY KEY,
  repository_url VARCHAR(512) NOT NULL,
  status         VARCHAR(32)  NOT NULL,
  report_json    LONGTEXT     NOT NULL,
  statuses_json  TEXT         NOT NULL,
  summary        LONGTEXT     NOT NULL,
  report_key     VARCHAR(512) NOT NULL,
  summary_key    VARCHAR(512) NOT NULL,
  critical       INT          NOT NULL DEFAULT 0,
  high           INT          NOT NULL DEFAULT 0,
  medium         INT          NOT NULL DEFAULT 0,
  low            INT          NOT NULL DEFAULT 0,
  findings_total INT          NOT NULL DEFAULT 0,
  duration_ms    BIGINT       NOT NULL DEFAULT 0,
  created_at     DATETIME(3)  NOT NULL,
  INDEX idx_repo_analyses_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the table when it does not exist yet.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save insert/update Run record
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO repo_analyses
(id, repository_url, status, report_json, statuses_json, summary,
 report_key, summary_key, critical, high, medium, low, findings_total,
 duration_ms, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), report_json=VALUES(report_json), statuses_json=VALUES(statuses_json),
 summary=VALUES(summary), report_key=VALUES(report_key), summary_key=VALUES(summary_key),
 critical=VALUES(critical), high=VALUES(high), medium=VALUES(medium), low=VALUES(low),
 findings_total=VALUES(findings_total), duration_ms=VALUES(duration_ms);
`
	report, statuses, err := run.Report.Encode()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, q,
		run.ID, run.RepositoryURL, run.Status, report, statuses, run.Summary,
		run.ReportKey, run.SummaryKey,
		run.Counts.Critical, run.Counts.High, run.Counts.Medium, run.Counts.Low, run.Counts.Total,
		run.DurationMS, createdAt(run),
	)
	return err
}

const selectRuns = `
SELECT id, repository_url, status, report_json, statuses_json, summary,
       report_key, summary_key, critical, high, medium, low, findings_total,
       duration_ms, created_at
FROM repo_analyses`

// Get by ID
func (r *RunRepository) Get(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, selectRuns+" WHERE id=? LIMIT 1;", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return run, err
}

// Latest runs, newest first
func (r *RunRepository) Latest(ctx context.Context, limit int) ([]*domain.Run, error) {
	limit = clampLimit(limit)
	rows, err := r.db.QueryContext(ctx, selectRuns+" ORDER BY created_at DESC, id DESC LIMIT ?;", limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*domain.Run, error) {
	var run domain.Run
	var report, statuses string
	if err := s.Scan(
		&run.ID, &run.RepositoryURL, &run.Status, &report, &statuses, &run.Summary,
		&run.ReportKey, &run.SummaryKey,
		&run.Counts.Critical, &run.Counts.High, &run.Counts.Medium, &run.Counts.Low, &run.Counts.Total,
		&run.DurationMS, &run.CreatedAt,
	); err != nil {
		return nil, err
	}
	rep, err := domain.DecodeReport(report, statuses)
	if err != nil {
		return nil, err
	}
	run.Report = rep
	return &run, nil
}
