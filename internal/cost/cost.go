// Package cost estimates the dollar cost of a chat exchange from approximate token counts.
//
// Token counts are approximations (four characters per token), not tokenizer output.
package cost

import (
	"math"
	"strings"
	"sync"
	"unicode/utf8"
)

const charsPerToken = 4

// Usage summarises one completed chat request.
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// ApproxTokens returns the character count of text divided by four.
func ApproxTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}

// ApproxTokensTotal counts the characters of all texts together and divides
// once, so many short messages still add up.
func ApproxTokensTotal(texts ...string) int {
	chars := 0
	for _, t := range texts {
		chars += utf8.RuneCountInString(t)
	}
	return chars / charsPerToken
}

// Lookup returns the rate for a provider and model. The model is matched exactly
// first, then against the longest known family key it contains, and finally
// DefaultRate is returned.
func Lookup(provider, model string) Rate {
	table, ok := rates[strings.ToLower(provider)]
	if !ok {
		return DefaultRate
	}

	if r, ok := table[model]; ok {
		return r
	}

	lowered := strings.ToLower(model)
	best := ""
	for key := range table {
		if strings.Contains(lowered, key) && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		return table[best]
	}

	return DefaultRate
}

// Estimate computes the cost of inputTokens and outputTokens for a provider and
// model, rounded to six decimal places. It never fails.
func Estimate(provider, model string, inputTokens, outputTokens int) float64 {
	r := Lookup(provider, model)
	raw := float64(inputTokens)/1000*r.Input + float64(outputTokens)/1000*r.Output
	return round6(raw)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Session is the running cost total of one document session.
type Session struct {
	mu           sync.Mutex
	total        float64
	requests     int
	inputTokens  int
	outputTokens int
}

// Add accumulates a completed request. Negative costs are ignored so the total
// never decreases.
func (s *Session) Add(u Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	s.inputTokens += u.InputTokens
	s.outputTokens += u.OutputTokens
	if u.Cost > 0 {
		s.total = round6(s.total + u.Cost)
	}
}

// Total returns the accumulated cost.
func (s *Session) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Snapshot returns totals for display.
func (s *Session) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Requests:     s.requests,
		InputTokens:  s.inputTokens,
		OutputTokens: s.outputTokens,
		Total:        s.total,
	}
}

// Reset clears the session, typically when a new document is loaded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = 0
	s.requests = 0
	s.inputTokens = 0
	s.outputTokens = 0
}

// Summary is a point-in-time copy of a Session.
type Summary struct {
	Requests     int     `json:"requests"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Total        float64 `json:"total"`
}
