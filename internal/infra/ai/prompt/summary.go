package prompt

import "fmt"

const summaryTemplate = `
Analyze the following error log. For each tool mentioned (e.g., pylint, bandit, semgrep, eslint, tsc), classify the errors by risk level into three categories: 'High Risk', 'Medium Risk', and 'Low Risk'.

For each category, provide a heading and then list the relevant files with a brief, actionable summary of the issues.

Error log content:
%s

---
Summary of errors:
`

// GetSummaryPrompt embeds the serialized report verbatim into the
// risk-classification instructions.
func GetSummaryPrompt(report string) string {
	return fmt.Sprintf(summaryTemplate, report)
}

// GetSystemPrompt is sent as the system role by providers that support one.
func GetSystemPrompt() string {
	return "You are a senior application security analyst reviewing static-analysis output. Answer in plain text or markdown; be concise and actionable."
}
