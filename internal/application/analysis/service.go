package analysis

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/bryanwahyu/repo-audit/internal/application"
	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// ErrHistoryDisabled is returned by history lookups when no Repository is configured.
var ErrHistoryDisabled = errors.New("run history is disabled")

// ToolDispatcher runs the analyzers for an inventory.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, inv domain.Inventory, repoPath string) []domain.ToolResult
}

// ReportSummarizer produces the summary text for a report.
type ReportSummarizer interface {
	Summarize(ctx context.Context, report domain.Report) string
}

// Service implements the analyze use-case.
// Service is designed to be used concurrently: every call gets its own
// workspace and artifact keys.
type Service struct {
	Fetcher    domain.Fetcher
	Classifier domain.Classifier
	Dispatcher ToolDispatcher
	Summarizer ReportSummarizer
	Artifacts  domain.ArtifactStore
	Repo       domain.Repository // optional
	Clock      application.Clock

	// WorkspaceDir is the parent of per-request workspaces; "" means os.TempDir.
	WorkspaceDir string

	// OnRun, when set, is called with every finished run.
	OnRun func(*domain.Run)

	aggregate func(domain.ToolResult, []domain.ToolResult) domain.Report
}

// AnalyzeCommand triggers one analysis.
type AnalyzeCommand struct {
	RepositoryURL string
}

// AnalyzeResult is the response of one analysis request.
type AnalyzeResult struct {
	ID          domain.RunID                  `json:"id"`
	Status      domain.RunStatus              `json:"status"`
	Report      domain.Report                 `json:"response"`
	Statuses    map[domain.Slot]domain.Status `json:"statuses"`
	Counts      *domain.SeverityCounts        `json:"counts,omitempty"`
	ReportFile  string                        `json:"report_file"`
	SummaryFile string                        `json:"summary_file"`
	Summary     string                        `json:"summary"`
	DurationMS  int64                         `json:"duration_ms"`
}

// Artifact keys, per run.
func reportKey(id domain.RunID) string  { return path.Join(string(id), "report.json") }
func summaryKey(id domain.RunID) string { return path.Join(string(id), "summary.txt") }

// Analyze runs clone, classify, dispatch, aggregate, persist and summarize.
// It always returns a well-formed result; stage failures show up as slot text
// and statuses. The workspace is removed on every exit path, panics included.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) AnalyzeResult {
	start := s.clock().Now()
	id := domain.RunID(uuid.New().String())
	klog.Infof("analysis %s started: url=%s", id, domain.RedactURL(cmd.RepositoryURL))

	ws, err := NewWorkspace(s.WorkspaceDir)
	if err != nil {
		clone := domain.ToolResult{Status: domain.StatusFailed, ExitCode: -1, Output: fmt.Sprintf("Error: workspace: %v", err)}
		return s.finish(ctx, id, cmd, start, domain.RunCloneFailed, s.aggregateFn()(clone, notRun()), nil, "", nil)
	}
	defer ws.Close()

	// ==== fetch ====
	fetched := s.Fetcher.Fetch(ctx, cmd.RepositoryURL, ws.Dir)
	ws.RepoPath = fetched.RepoPath
	clone := domain.ToolResult{
		Slot:     domain.SlotClone,
		Status:   domain.StatusOK,
		Output:   domain.ScrubURL(fetched.Output, cmd.RepositoryURL),
		ExitCode: fetched.ExitCode,
	}
	if !fetched.OK {
		clone.Status = domain.StatusFailed
		report := s.aggregateFn()(clone, notRun())
		ws.Close()
		return s.finish(ctx, id, cmd, start, domain.RunCloneFailed, report, nil, "", nil)
	}

	// ==== classify ====
	inv, err := s.Classifier.Classify(fetched.RepoPath)
	if err != nil {
		klog.Warningf("analysis %s: classify %s: %v", id, fetched.RepoPath, err)
	}
	klog.V(2).Infof("analysis %s: %d python, %d js/ts files", id, len(inv.Python), len(inv.JSTS))

	// ==== dispatch + aggregate ====
	results := s.Dispatcher.Dispatch(ctx, inv, fetched.RepoPath)
	report := s.aggregateFn()(clone, results)
	ws.Close()

	counts := semgrepCounts(report)

	// ==== persist report, summarize ====
	reportFile := s.putReport(ctx, id, report)
	summary := s.Summarizer.Summarize(ctx, report)
	return s.finish(ctx, id, cmd, start, domain.RunCompleted, report, counts, reportFile, &summary)
}

// finish stores the summary and the run record and builds the response.
// summary is nil when the run ended before summarization.
func (s *Service) finish(ctx context.Context, id domain.RunID, cmd AnalyzeCommand, start time.Time, status domain.RunStatus, report domain.Report, counts *domain.SeverityCounts, reportFile string, summary *string) AnalyzeResult {
	res := AnalyzeResult{
		ID:         id,
		Status:     status,
		Report:     report,
		Statuses:   report.Statuses(),
		Counts:     counts,
		ReportFile: reportFile,
	}
	if summary != nil {
		res.Summary = *summary
		res.SummaryFile = s.putText(ctx, summaryKey(id), "text/plain; charset=utf-8", res.Summary)
	}
	res.DurationMS = application.Elapsed(s.clock(), start).Milliseconds()

	run := &domain.Run{
		ID:            id,
		RepositoryURL: domain.RedactURL(cmd.RepositoryURL),
		Status:        status,
		Report:        report,
		Summary:       res.Summary,
		ReportKey:     res.ReportFile,
		SummaryKey:    res.SummaryFile,
		DurationMS:    res.DurationMS,
		CreatedAt:     start,
	}
	if counts != nil {
		run.Counts = *counts
	}
	if s.Repo != nil {
		if err := s.Repo.Save(ctx, run); err != nil {
			klog.Errorf("analysis %s: save run: %v", id, err)
		}
	}
	if s.OnRun != nil {
		s.OnRun(run)
	}

	klog.Infof("analysis %s finished: status=%s duration=%dms", id, status, res.DurationMS)
	return res
}

func (s *Service) putReport(ctx context.Context, id domain.RunID, report domain.Report) string {
	text, err := report.Indented()
	if err != nil {
		klog.Errorf("analysis %s: serialize report: %v", id, err)
		return ""
	}
	return s.putText(ctx, reportKey(id), "application/json", text)
}

func (s *Service) putText(ctx context.Context, key, contentType, body string) string {
	if s.Artifacts == nil {
		return ""
	}
	loc, err := s.Artifacts.PutText(ctx, key, contentType, body)
	if err != nil {
		klog.Errorf("store artifact %s: %v", key, err)
		return ""
	}
	return loc
}

// Get ambil 1 run by id
func (s *Service) Get(ctx context.Context, id domain.RunID) (*domain.Run, error) {
	if s.Repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.Repo.Get(ctx, id)
}

// Latest ambil N run terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Run, error) {
	if s.Repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.Repo.Latest(ctx, limit)
}

func (s *Service) aggregateFn() func(domain.ToolResult, []domain.ToolResult) domain.Report {
	if s.aggregate != nil {
		return s.aggregate
	}
	return domain.Aggregate
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// notRun fills every tool slot for a request that never reached dispatch.
func notRun() []domain.ToolResult {
	out := make([]domain.ToolResult, 0, len(domain.ToolSlots))
	for _, slot := range domain.ToolSlots {
		out = append(out, domain.ToolResult{Slot: slot, Status: domain.StatusNotRun})
	}
	return out
}

func semgrepCounts(report domain.Report) *domain.SeverityCounts {
	res, ok := report.Get(domain.SlotSemgrep)
	if !ok || res.Status != domain.StatusOK {
		return nil
	}
	c, ok := domain.ParseSemgrepCounts(res.Output)
	if !ok {
		return nil
	}
	return &c
}
