package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/repo-audit/internal/application/analysis"
	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

func runAnalyze(t *testing.T, status domain.RunStatus, args ...string) (string, string, error) {
	t.Helper()
	var gotURL string
	cmd := newAnalyzeCommand(func(_ context.Context, _ string, url string) (appanalysis.AnalyzeResult, error) {
		gotURL = url
		report := domain.Aggregate(domain.ToolResult{Output: "cloned"}, nil)
		return appanalysis.AnalyzeResult{ID: "id-1", Status: status, Report: report, Statuses: report.Statuses(), Summary: "ok"}, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), gotURL, err
}

func TestAnalyzeCommand_PrintsResult(t *testing.T) {
	out, url, err := runAnalyze(t, domain.RunCompleted, "https://github.com/acme/widget")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widget", url)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "ok", body["summary"])
	assert.Contains(t, body, "response")
}

func TestAnalyzeCommand_ReportOnly(t *testing.T) {
	out, _, err := runAnalyze(t, domain.RunCompleted, "--report-only", "https://github.com/acme/widget")
	require.NoError(t, err)

	var report map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report, 6)
	assert.Equal(t, "cloned", report["clone_output"])
}

func TestAnalyzeCommand_CloneFailureExitsNonZero(t *testing.T) {
	out, _, err := runAnalyze(t, domain.RunCloneFailed, "https://github.com/acme/missing")
	assert.Error(t, err)
	assert.NotEmpty(t, out)

	_, _, err = runAnalyze(t, domain.RunCloneFailed, "--fail-on-clone-error=false", "https://github.com/acme/missing")
	assert.NoError(t, err)
}

func TestAnalyzeCommand_RejectsInvalidURL(t *testing.T) {
	_, url, err := runAnalyze(t, domain.RunCompleted, "https://127.0.0.1/acme/widget")
	assert.Error(t, err)
	assert.Empty(t, url)

	_, _, err = runAnalyze(t, domain.RunCompleted)
	assert.Error(t, err)
}
