package analysis

import (
	"encoding/json"
	"strings"
)

// ParseSemgrepCounts counts semgrep --json results by severity. The slot text
// is merged stdout/stderr, so anything before the first '{' is skipped and
// anything after the JSON document is ignored. ok is false when no semgrep
// document could be decoded.
func ParseSemgrepCounts(text string) (SeverityCounts, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return SeverityCounts{}, false
	}
	var doc struct {
		Results *[]struct {
			Extra struct {
				Severity string `json:"severity"`
			} `json:"extra"`
		} `json:"results"`
	}
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	if err := dec.Decode(&doc); err != nil || doc.Results == nil {
		return SeverityCounts{}, false
	}

	var c SeverityCounts
	for _, r := range *doc.Results {
		switch strings.ToUpper(r.Extra.Severity) {
		case "CRITICAL":
			c.Critical++
		case "ERROR", "HIGH":
			c.High++
		case "WARNING", "MEDIUM":
			c.Medium++
		default:
			c.Low++
		}
		c.Total++
	}
	return c, true
}
