package analysis

import (
	"context"
	"sync"

	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
)

// recordingRunner records every command and answers with a canned result
// per executable name.
type recordingRunner struct {
	mu      sync.Mutex
	calls   []domain.Command
	results map[string]domain.RunResult
	onRun   func(domain.Command)
}

func (r *recordingRunner) Run(_ context.Context, cmd domain.Command) domain.RunResult {
	if r.onRun != nil {
		r.onRun(cmd)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmd)
	if res, ok := r.results[cmd.Name]; ok {
		return res
	}
	return domain.RunResult{Status: domain.StatusOK, Output: cmd.Name + " output"}
}

func (r *recordingRunner) callsTo(name string) []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Command
	for _, c := range r.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

var testTools = Toolchain{
	Pylint:  "pylint",
	Bandit:  "bandit",
	Semgrep: "semgrep",
	NPM:     "npm",
	ESLint:  "eslint",
	TSC:     "tsc",
}

type fakeClient struct {
	out    string
	err    error
	prompt string
	calls  int
}

func (f *fakeClient) Name() string { return "Fake" }

func (f *fakeClient) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.out, f.err
}

type memStore struct {
	mu   sync.Mutex
	blob map[string]string
	err  error
}

func (m *memStore) PutText(_ context.Context, key, _ string, body string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		m.blob = map[string]string{}
	}
	m.blob[key] = body
	return "mem://" + key, nil
}

type memRepo struct {
	mu   sync.Mutex
	runs []*domain.Run
}

func (m *memRepo) Save(_ context.Context, r *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *memRepo) Get(_ context.Context, id domain.RunID) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) Latest(_ context.Context, limit int) ([]*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	return m.runs[:limit], nil
}
