package chat

import (
	"fmt"
	"strings"
)

// DefaultSystemPrompt frames every document session.
const DefaultSystemPrompt = "You are a helpful research assistant. Answer questions about the document below. " +
	"Quote the document when it supports your answer and say so when it does not contain the answer."

// SummarizePrompt asks for a structured summary of the loaded paper.
const SummarizePrompt = `You are an AI assistant that summarizes academic papers concisely. Given a research paper, generate a structured summary that includes:
Objective: What is the paper about?
Key Findings: The most important results and conclusions.
Methods: A brief mention of the approach or methodology.
Significance: Why the findings matter.

Keep the summary clear, precise. Avoid unnecessary details and focus on the core insights.`

// DocumentPrompt builds the hidden system message for a document.
func DocumentPrompt(systemPrompt, title, text string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(systemPrompt))
	b.WriteString("\n\n")
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString(strings.TrimSpace(text))
	return b.String()
}
