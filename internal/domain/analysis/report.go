package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Report is the canonical analysis artifact: one ToolResult per Slot, always
// in Slots order.
type Report struct {
	results []ToolResult
}

// Aggregate assembles the clone output and tool results into a Report.
// Slots absent from results are filled as not run; duplicates keep the last.
func Aggregate(clone ToolResult, results []ToolResult) Report {
	bySlot := make(map[Slot]ToolResult, len(results))
	for _, r := range results {
		bySlot[r.Slot] = r
	}
	clone.Slot = SlotClone
	bySlot[SlotClone] = clone

	out := make([]ToolResult, 0, len(Slots))
	for _, s := range Slots {
		r, ok := bySlot[s]
		if !ok {
			r = ToolResult{Slot: s, Status: StatusNotRun}
		}
		out = append(out, r)
	}
	return Report{results: out}
}

// Results returns a copy of the slot results in order.
func (r Report) Results() []ToolResult {
	if len(r.results) == 0 {
		return Aggregate(ToolResult{Status: StatusNotRun}, nil).results
	}
	out := make([]ToolResult, len(r.results))
	copy(out, r.results)
	return out
}

// Get returns the result stored in slot.
func (r Report) Get(slot Slot) (ToolResult, bool) {
	for _, res := range r.Results() {
		if res.Slot == slot {
			return res, true
		}
	}
	return ToolResult{}, false
}

// Text returns the raw text of slot, or "" for unknown slots.
func (r Report) Text(slot Slot) string {
	res, _ := r.Get(slot)
	return res.Output
}

// Statuses maps each slot to its status.
func (r Report) Statuses() map[Slot]Status {
	out := make(map[Slot]Status, len(Slots))
	for _, res := range r.Results() {
		out[res.Slot] = res.Status
	}
	return out
}

// WithStatuses returns a copy of r with statuses restored from a persisted map.
func (r Report) WithStatuses(statuses map[Slot]Status) Report {
	res := r.Results()
	for i := range res {
		if st, ok := statuses[res[i].Slot]; ok {
			res[i].Status = st
		}
	}
	return Report{results: res}
}

// MarshalJSON writes the report as an object of slot -> text in fixed order.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, res := range r.Results() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalVerbatim(string(res.Slot), "")
		if err != nil {
			return nil, err
		}
		v, err := marshalVerbatim(res.Output, "")
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a slot -> text object. Unknown keys are rejected.
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := make(map[Slot]bool, len(Slots))
	for _, s := range Slots {
		known[s] = true
	}
	results := make([]ToolResult, 0, len(raw))
	var clone ToolResult
	for k, v := range raw {
		s := Slot(k)
		if !known[s] {
			return fmt.Errorf("unknown report slot: %s", k)
		}
		if s == SlotClone {
			clone = ToolResult{Output: v}
			continue
		}
		results = append(results, ToolResult{Slot: s, Output: v})
	}
	*r = Aggregate(clone, results)
	return nil
}

// Indented serializes the report the way it is persisted and embedded in
// the summary prompt.
func (r Report) Indented() (string, error) {
	b, err := marshalVerbatim(r, "    ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode returns the report and its statuses as JSON strings for storage.
func (r Report) Encode() (report string, statuses string, err error) {
	rb, err := marshalVerbatim(r, "")
	if err != nil {
		return "", "", err
	}
	sb, err := marshalVerbatim(r.Statuses(), "")
	if err != nil {
		return "", "", err
	}
	return string(rb), string(sb), nil
}

// DecodeReport is the inverse of Encode. An empty statuses string is allowed.
func DecodeReport(report, statuses string) (Report, error) {
	var r Report
	if err := json.Unmarshal([]byte(report), &r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if statuses == "" {
		return r, nil
	}
	var st map[Slot]Status
	if err := json.Unmarshal([]byte(statuses), &st); err != nil {
		return Report{}, fmt.Errorf("decode statuses: %w", err)
	}
	return r.WithStatuses(st), nil
}

// marshalVerbatim encodes v without HTML escaping, so tool output such as
// "Promise<T>" or "a && b" stays byte-for-byte readable.
func marshalVerbatim(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
