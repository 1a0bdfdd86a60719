package analysis

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_AlwaysSixSlots(t *testing.T) {
	cases := map[string][]ToolResult{
		"no tools": nil,
		"python only": {
			{Slot: SlotPylint, Status: StatusOK, Output: "p"},
			{Slot: SlotBandit, Status: StatusOK, Output: "b"},
			{Slot: SlotSemgrep, Status: StatusOK, Output: "s"},
		},
		"all tools": {
			{Slot: SlotPylint}, {Slot: SlotBandit}, {Slot: SlotSemgrep},
			{Slot: SlotESLint}, {Slot: SlotTSC},
		},
	}
	for name, results := range cases {
		t.Run(name, func(t *testing.T) {
			r := Aggregate(ToolResult{Status: StatusOK, Output: "cloned"}, results)
			got := r.Results()
			require.Len(t, got, 6)
			for i, s := range Slots {
				assert.Equal(t, s, got[i].Slot)
			}
			assert.Equal(t, "cloned", r.Text(SlotClone))
		})
	}
}

func TestAggregate_MissingSlotsAreNotRun(t *testing.T) {
	r := Aggregate(ToolResult{Output: "x"}, []ToolResult{{Slot: SlotTSC, Status: StatusOK, Output: "fine"}})

	st := r.Statuses()
	assert.Equal(t, StatusNotRun, st[SlotPylint])
	assert.Equal(t, StatusNotRun, st[SlotESLint])
	assert.Equal(t, StatusOK, st[SlotTSC])
	assert.Equal(t, "", r.Text(SlotPylint))
}

func TestReport_MarshalJSONKeepsSlotOrder(t *testing.T) {
	r := Aggregate(ToolResult{Output: "clone \"out\""}, []ToolResult{
		{Slot: SlotTSC, Output: "t"},
		{Slot: SlotPylint, Output: "p"},
	})
	b, err := json.Marshal(r)
	require.NoError(t, err)

	s := string(b)
	last := -1
	for _, slot := range Slots {
		idx := strings.Index(s, `"`+string(slot)+`"`)
		require.GreaterOrEqual(t, idx, 0, "missing %s", slot)
		assert.Greater(t, idx, last, "%s out of order", slot)
		last = idx
	}
	assert.Contains(t, s, `"clone_output":"clone \"out\""`)
}

func TestReport_UnmarshalRoundTripWithStatuses(t *testing.T) {
	orig := Aggregate(ToolResult{Status: StatusOK, Output: "c"}, []ToolResult{
		{Slot: SlotPylint, Status: StatusSkipped, Output: NoPythonFiles},
		{Slot: SlotESLint, Status: StatusTimeout, Output: "killed"},
	})
	b, err := json.Marshal(orig)
	require.NoError(t, err)

	var back Report
	require.NoError(t, json.Unmarshal(b, &back))
	back = back.WithStatuses(orig.Statuses())

	assert.Equal(t, orig.Results(), back.Results())
}

func TestReport_UnmarshalRejectsUnknownSlot(t *testing.T) {
	var r Report
	err := json.Unmarshal([]byte(`{"pylint":"a","rubocop":"b"}`), &r)
	assert.Error(t, err)
}

func TestReport_ZeroValueStillHasSixSlots(t *testing.T) {
	var r Report
	assert.Len(t, r.Results(), 6)

	s, err := r.Indented()
	require.NoError(t, err)
	assert.Contains(t, s, "\n    \"tsc\": \"\"")
}

func TestReport_EncodeDecode(t *testing.T) {
	orig := Aggregate(ToolResult{Status: StatusOK, Output: "c"}, []ToolResult{
		{Slot: SlotSemgrep, Status: StatusUnavailable, Output: "not found"},
	})
	rep, st, err := orig.Encode()
	require.NoError(t, err)

	back, err := DecodeReport(rep, st)
	require.NoError(t, err)
	assert.Equal(t, orig.Statuses(), back.Statuses())
	assert.Equal(t, "not found", back.Text(SlotSemgrep))

	_, err = DecodeReport("not json", "")
	assert.Error(t, err)
}

func TestReport_ToolTextIsNotHTMLEscaped(t *testing.T) {
	text := "a.ts(3,7): error TS2322: Promise<T> => x < y && z > w"
	rep := Aggregate(ToolResult{Output: "cloned"}, []ToolResult{{Slot: SlotTSC, Output: text}})

	indented, err := rep.Indented()
	require.NoError(t, err)
	assert.Contains(t, indented, `    "tsc": "`+text+`"`)
	assert.NotContains(t, indented, `\u003c`)

	b, err := json.Marshal(rep)
	require.NoError(t, err)
	var back Report
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, text, back.Text(SlotTSC))

	report, _, err := rep.Encode()
	require.NoError(t, err)
	assert.Contains(t, report, "Promise<T> => x < y && z > w")
}
