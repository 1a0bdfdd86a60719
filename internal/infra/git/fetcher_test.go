package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// fakeRunner pretends to be git: it records the call and optionally creates
// the clone directory.
type fakeRunner struct {
	create string
	result domain.RunResult
	calls  []domain.Command
}

func (f *fakeRunner) Run(_ context.Context, cmd domain.Command) domain.RunResult {
	f.calls = append(f.calls, cmd)
	if f.create != "" {
		_ = os.MkdirAll(filepath.Join(cmd.Dir, f.create), 0o755)
	}
	return f.result
}

func TestRepoName(t *testing.T) {
	cases := map[string]string{
		"https://github.com/acme/widget.git":   "widget",
		"https://github.com/acme/widget":       "widget",
		"https://github.com/acme/widget/":      "widget",
		"https://github.com/acme/widget.git/":  "widget",
		"git@github.com:acme/widget.git":       "widget",
		"https://github.com/acme/widget/.git":  "widget",
		"https://github.com/acme/widget/.git/": "widget",
		"widget":                               "widget",
		"":                                     "repo",
	}
	for in, want := range cases {
		assert.Equal(t, want, RepoName(in), in)
	}
}

func TestFetch_InvokesCloneInParentDir(t *testing.T) {
	parent := t.TempDir()
	r := &fakeRunner{create: "widget", result: domain.RunResult{Status: domain.StatusOK, Output: "Cloning into 'widget'..."}}
	f := NewFetcher(r, "/usr/bin/git", 0)

	res := f.Fetch(context.Background(), "https://github.com/acme/widget.git", parent)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "/usr/bin/git", r.calls[0].Name)
	assert.Equal(t, []string{"clone", "https://github.com/acme/widget.git"}, r.calls[0].Args)
	assert.Equal(t, parent, r.calls[0].Dir)

	assert.True(t, res.OK)
	assert.Equal(t, filepath.Join(parent, "widget"), res.RepoPath)
	assert.Equal(t, "Cloning into 'widget'...", res.Output)
}

func TestFetch_MissingDirectoryAppendsMarker(t *testing.T) {
	r := &fakeRunner{result: domain.RunResult{Status: domain.StatusOK, ExitCode: 128, Output: "fatal: repository not found"}}
	res := NewFetcher(r, "", 0).Fetch(context.Background(), "https://github.com/acme/nope", t.TempDir())

	assert.False(t, res.OK)
	assert.Equal(t, "fatal: repository not found\n"+MarkerRepoMissing, res.Output)
	assert.Equal(t, "git", r.calls[0].Name)
}

func TestFetch_NonZeroExitWithDirectoryIsFailure(t *testing.T) {
	r := &fakeRunner{create: "widget", result: domain.RunResult{Status: domain.StatusOK, ExitCode: 128, Output: "fatal: early EOF"}}
	res := NewFetcher(r, "", 0).Fetch(context.Background(), "https://github.com/acme/widget", t.TempDir())

	assert.False(t, res.OK)
	assert.Contains(t, res.Output, "exited with status 128")
}

func TestFetch_TimeoutIsFailure(t *testing.T) {
	r := &fakeRunner{create: "widget", result: domain.RunResult{Status: domain.StatusTimeout, ExitCode: -1}}
	res := NewFetcher(r, "", 0).Fetch(context.Background(), "https://github.com/acme/widget", t.TempDir())

	assert.False(t, res.OK)
	assert.Equal(t, "Error: git clone timeout.", res.Output)
}
