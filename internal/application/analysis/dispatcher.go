package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// ESLintConfigName is the flat config written when a repository has none.
const ESLintConfigName = "eslint.config.js"

const eslintConfigBody = "module.exports = {};"

// eslintConfigNames are the flat-config files ESLint looks up at the root.
var eslintConfigNames = []string{
	"eslint.config.js", "eslint.config.mjs", "eslint.config.cjs",
	"eslint.config.ts", "eslint.config.mts", "eslint.config.cts",
}

// Toolchain names the executable used for each tool.
type Toolchain struct {
	Pylint  string
	Bandit  string
	Semgrep string
	NPM     string
	ESLint  string
	TSC     string
}

// Dispatcher runs the per-language analyzers for one inventory.
type Dispatcher struct {
	Runner      domain.Runner
	Tools       Toolchain
	Timeout     time.Duration // per tool
	Concurrency int

	// OnResult, when set, is called once per finished tool invocation.
	OnResult func(domain.ToolResult)
}

// Dispatch always returns exactly one result per domain.ToolSlots entry, in
// that order. Tools run on a bounded pool. JS/TS preparation starts only
// after the root scans (bandit, semgrep) finish, and eslint and tsc start
// only after preparation.
func (d *Dispatcher) Dispatch(ctx context.Context, inv domain.Inventory, repoPath string) []domain.ToolResult {
	results := make([]domain.ToolResult, len(domain.ToolSlots))
	index := make(map[domain.Slot]int, len(domain.ToolSlots))
	for i, s := range domain.ToolSlots {
		index[s] = i
	}

	limit := d.Concurrency
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)

	run := func(slot domain.Slot, cmd domain.Command, after <-chan struct{}, done func()) {
		g.Go(func() error {
			if done != nil {
				defer done()
			}
			if after != nil {
				<-after
			}
			cmd.Timeout = d.Timeout
			res := d.runGuarded(ctx, slot, cmd)
			results[index[slot]] = res
			if d.OnResult != nil {
				d.OnResult(res)
			}
			return nil
		})
	}

	// bandit and semgrep walk the whole root, so npm install must not write
	// node_modules until both have finished.
	var rootScans sync.WaitGroup
	if len(inv.Python) > 0 {
		files := append([]string(nil), inv.Python...)
		run(domain.SlotPylint, domain.Command{Name: d.Tools.Pylint, Args: files}, nil, nil)
		rootScans.Add(2)
		run(domain.SlotBandit, domain.Command{Name: d.Tools.Bandit, Args: []string{"-r", repoPath}}, nil, rootScans.Done)
		run(domain.SlotSemgrep, domain.Command{Name: d.Tools.Semgrep, Args: []string{"--config", "auto", repoPath, "--json"}}, nil, rootScans.Done)
	} else {
		results[index[domain.SlotPylint]] = domain.Skipped(domain.SlotPylint, domain.NoPythonFiles)
		results[index[domain.SlotBandit]] = domain.Skipped(domain.SlotBandit, domain.NoPythonFiles)
		results[index[domain.SlotSemgrep]] = domain.Skipped(domain.SlotSemgrep, domain.NoPythonFiles)
	}

	// Tasks are admitted in dependency order: anything a task waits on has
	// already been admitted to the pool, so SetLimit cannot deadlock.
	if len(inv.JSTS) > 0 {
		prepared := make(chan struct{})
		g.Go(func() error {
			defer close(prepared)
			defer func() {
				if r := recover(); r != nil {
					klog.Errorf("js preparation in %s panicked: %v", repoPath, r)
				}
			}()
			rootScans.Wait()
			d.prepareJS(ctx, repoPath)
			return nil
		})
		run(domain.SlotESLint, domain.Command{Name: d.Tools.ESLint, Args: []string{"."}, Dir: repoPath}, prepared, nil)
		run(domain.SlotTSC, domain.Command{Name: d.Tools.TSC, Args: []string{"--noEmit", "--allowJs"}, Dir: repoPath}, prepared, nil)
	} else {
		results[index[domain.SlotESLint]] = domain.Skipped(domain.SlotESLint, domain.NoJSTSFiles)
		results[index[domain.SlotTSC]] = domain.Skipped(domain.SlotTSC, domain.NoTSFiles)
	}

	_ = g.Wait()
	return results
}

// runGuarded runs one tool. A panic in the runner becomes a failed result
// instead of taking down the process from a pool goroutine.
func (d *Dispatcher) runGuarded(ctx context.Context, slot domain.Slot, cmd domain.Command) (res domain.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("%s panicked: %v", cmd.Name, r)
			res = domain.ToolResult{Slot: slot, Status: domain.StatusFailed, ExitCode: -1, Output: fmt.Sprintf("%s: internal error: %v", cmd.Name, r)}
		}
	}()
	return d.Runner.Run(ctx, cmd).ToolResult(slot)
}

// prepareJS installs declared dependencies and materializes a minimal lint
// config. Failures are only logged: they surface through the linter output.
func (d *Dispatcher) prepareJS(ctx context.Context, repoPath string) {
	res := d.Runner.Run(ctx, domain.Command{Name: d.Tools.NPM, Args: []string{"install"}, Dir: repoPath, Timeout: d.Timeout})
	if res.Status != domain.StatusOK || res.ExitCode != 0 {
		klog.Warningf("npm install in %s: status=%s exit=%d", repoPath, res.Status, res.ExitCode)
	}

	if err := ensureESLintConfig(repoPath); err != nil {
		klog.Warningf("eslint config in %s: %v", repoPath, err)
	}
}

func ensureESLintConfig(repoPath string) error {
	for _, name := range eslintConfigNames {
		_, err := os.Stat(filepath.Join(repoPath, name))
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return os.WriteFile(filepath.Join(repoPath, ESLintConfigName), []byte(eslintConfigBody), 0o644)
}
