package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSemgrepCounts(t *testing.T) {
	text := `METRICS: sending pseudonymous usage data
{"results":[
 {"check_id":"a","extra":{"severity":"ERROR"}},
 {"check_id":"b","extra":{"severity":"WARNING"}},
 {"check_id":"c","extra":{"severity":"WARNING"}},
 {"check_id":"d","extra":{"severity":"INFO"}}
],"errors":[]}
Ran 120 rules on 3 files`

	c, ok := ParseSemgrepCounts(text)
	assert.True(t, ok)
	assert.Equal(t, SeverityCounts{High: 1, Medium: 2, Low: 1, Total: 4}, c)
}

func TestParseSemgrepCounts_NotSemgrepJSON(t *testing.T) {
	for _, text := range []string{
		"",
		NoPythonFiles,
		`exec: "semgrep": executable file not found in $PATH`,
		`{"unrelated": true}`,
		`{"results": [`,
	} {
		_, ok := ParseSemgrepCounts(text)
		assert.False(t, ok, text)
	}
}

func TestParseSemgrepCounts_EmptyResults(t *testing.T) {
	c, ok := ParseSemgrepCounts(`{"results":[],"errors":[]}`)
	assert.True(t, ok)
	assert.Equal(t, SeverityCounts{}, c)
}
