package analysis

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	domai "github.com/bryanwahyu/repo-audit/internal/domain/ai"
	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
	"github.com/bryanwahyu/repo-audit/internal/infra/ai/prompt"
)

// Summarizer turns a report into the model's risk summary.
type Summarizer struct {
	Client  domai.Client
	Timeout time.Duration // 0 means no extra deadline
}

func NewSummarizer(client domai.Client) *Summarizer {
	return &Summarizer{Client: client}
}

// Summarize calls the model once. It never fails: errors come back as a
// fallback text carrying the failure detail.
func (s *Summarizer) Summarize(ctx context.Context, report domain.Report) string {
	text, err := report.Indented()
	if err != nil {
		return fmt.Sprintf("Summary error: %v", err)
	}
	if s == nil || s.Client == nil {
		return "Summary error: no summarization provider configured"
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	out, err := s.Client.Generate(ctx, prompt.GetSummaryPrompt(text))
	if err != nil {
		klog.Errorf("summary via %s failed: %v", s.Client.Name(), err)
		return fmt.Sprintf("%s API error: %v", s.Client.Name(), err)
	}
	return out
}
