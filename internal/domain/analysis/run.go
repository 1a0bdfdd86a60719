package analysis

import "time"

// Command describes one external tool invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// RunResult hasil dari Runner
type RunResult struct {
	Output     string
	Status     Status
	ExitCode   int
	DurationMS int64
}

// ToolResult tags the run result with the slot it belongs to.
func (r RunResult) ToolResult(slot Slot) ToolResult {
	return ToolResult{
		Slot:       slot,
		Status:     r.Status,
		Output:     r.Output,
		ExitCode:   r.ExitCode,
		DurationMS: r.DurationMS,
	}
}

// FetchResult hasil dari Fetcher
type FetchResult struct {
	RepoPath string
	Output   string
	ExitCode int
	OK       bool
}
