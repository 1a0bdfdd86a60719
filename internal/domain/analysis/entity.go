package analysis

import (
	"time"
)

// RunID identifies one analysis request
type RunID string

// Slot is a named position in the report
type Slot string

const (
	SlotClone   Slot = "clone_output"
	SlotPylint  Slot = "pylint"
	SlotBandit  Slot = "bandit"
	SlotSemgrep Slot = "semgrep"
	SlotESLint  Slot = "eslint"
	SlotTSC     Slot = "tsc"
)

// Slots is the fixed report key set, in serialization order.
var Slots = []Slot{SlotClone, SlotPylint, SlotBandit, SlotSemgrep, SlotESLint, SlotTSC}

// ToolSlots are the slots filled by the dispatcher.
var ToolSlots = []Slot{SlotPylint, SlotBandit, SlotSemgrep, SlotESLint, SlotTSC}

// Status enum for a single slot
type Status string

const (
	StatusOK          Status = "ok"
	StatusSkipped     Status = "skipped"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
	StatusTimeout     Status = "timeout"
	StatusNotRun      Status = "not_run"
)

// Placeholder text for empty language buckets
const (
	NoPythonFiles = "No Python files"
	NoJSTSFiles   = "No JS/TS files"
	NoTSFiles     = "No TS files"
)

// ToolResult holds one tool's raw text plus how it was produced.
type ToolResult struct {
	Slot       Slot   `json:"slot"`
	Status     Status `json:"status"`
	Output     string `json:"output"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
}

// Skipped builds the placeholder result for a slot without matching files.
func Skipped(slot Slot, placeholder string) ToolResult {
	return ToolResult{Slot: slot, Status: StatusSkipped, Output: placeholder}
}

// Inventory is the per-language partition of a cloned workspace.
type Inventory struct {
	Python []string
	JSTS   []string
}

// SeverityCounts value object
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// RunStatus is the outcome of a whole request
type RunStatus string

const (
	RunCompleted   RunStatus = "completed"
	RunCloneFailed RunStatus = "clone_failed"
)

// Run is the persisted record of one analysis request.
type Run struct {
	ID            RunID          `json:"id"`
	RepositoryURL string         `json:"repository_url"`
	Status        RunStatus      `json:"status"`
	Report        Report         `json:"report"`
	Summary       string         `json:"summary"`
	ReportKey     string         `json:"report_key,omitempty"`
	SummaryKey    string         `json:"summary_key,omitempty"`
	Counts        SeverityCounts `json:"counts"`
	DurationMS    int64          `json:"duration_ms"`
	CreatedAt     time.Time      `json:"created_at"`
}
