package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"k8s.io/klog/v2"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// MarkerRepoMissing is appended to the clone output when the repository
// directory does not exist after cloning.
const MarkerRepoMissing = "Error: Repo folder not found."

// Fetcher clones repositories with the git CLI through a Runner.
type Fetcher struct {
	Runner  domain.Runner
	GitPath string
	Timeout time.Duration
}

func NewFetcher(runner domain.Runner, gitPath string, timeout time.Duration) *Fetcher {
	if gitPath == "" {
		gitPath = "git"
	}
	return &Fetcher{Runner: runner, GitPath: gitPath, Timeout: timeout}
}

// Fetch runs `git clone <url>` inside parentDir, once, without retry.
// The clone counts as successful only if git exited 0 and the expected
// directory exists afterwards.
func (f *Fetcher) Fetch(ctx context.Context, url, parentDir string) domain.FetchResult {
	repoPath := filepath.Join(parentDir, RepoName(url))

	res := f.Runner.Run(ctx, domain.Command{
		Name:    f.GitPath,
		Args:    []string{"clone", url},
		Dir:     parentDir,
		Timeout: f.Timeout,
	})

	out := domain.FetchResult{
		RepoPath: repoPath,
		Output:   res.Output,
		ExitCode: res.ExitCode,
	}

	info, err := os.Stat(repoPath)
	switch {
	case err != nil || !info.IsDir():
		out.Output = appendMarker(out.Output, MarkerRepoMissing)
	case res.Status != domain.StatusOK:
		out.Output = appendMarker(out.Output, fmt.Sprintf("Error: git clone %s.", res.Status))
	case res.ExitCode != 0:
		out.Output = appendMarker(out.Output, fmt.Sprintf("Error: git clone exited with status %d.", res.ExitCode))
	default:
		out.OK = true
	}

	if !out.OK {
		klog.Warningf("clone failed: url=%s exit=%d", domain.RedactURL(url), res.ExitCode)
	}
	return out
}

// RepoName derives the directory git creates for url: the last path element
// with trailing "/", "/.git" and ".git" removed.
func RepoName(url string) string {
	u := strings.TrimSpace(url)
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/.git")
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, ".git")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	if u == "" || u == "." || u == ".." {
		return "repo"
	}
	return u
}

func appendMarker(s, marker string) string {
	if s == "" {
		return marker
	}
	return s + "\n" + marker
}
