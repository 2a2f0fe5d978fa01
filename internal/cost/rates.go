package cost

// Rate is a price in USD per 1000 tokens.
type Rate struct {
	Input  float64
	Output float64
}

// DefaultRate applies when neither the provider nor any model family is known.
var DefaultRate = Rate{Input: 0.001, Output: 0.002}

// rates is keyed by lowercased provider name, then by model or model family.
var rates = map[string]map[string]Rate{
	"openai": {
		"gpt-3.5-turbo":        {Input: 0.0015, Output: 0.002},
		"gpt-3.5-turbo-16k":    {Input: 0.0015, Output: 0.002},
		"gpt-4":                {Input: 0.03, Output: 0.06},
		"gpt-4-32k":            {Input: 0.06, Output: 0.12},
		"gpt-4-turbo":          {Input: 0.01, Output: 0.03},
		"gpt-4o":               {Input: 0.005, Output: 0.015},
		"gpt-4o-mini":          {Input: 0.00015, Output: 0.0006},
		"gpt-4o-realtime":      {Input: 0.002, Output: 0.01},
		"gpt-4o-mini-realtime": {Input: 0.0006, Output: 0.0024},
		"o1-preview":           {Input: 0.015, Output: 0.06},
		"o1":                   {Input: 0.015, Output: 0.06},
		"o1-mini":              {Input: 0.001, Output: 0.004},
		"o3-mini":              {Input: 0.001, Output: 0.004},
	},
	"anthropic": {
		"claude-3-opus":     {Input: 0.015, Output: 0.075},
		"claude-3-sonnet":   {Input: 0.003, Output: 0.015},
		"claude-3.5-sonnet": {Input: 0.003, Output: 0.015},
		"claude-3.7-sonnet": {Input: 0.003, Output: 0.015},
		"claude-3-haiku":    {Input: 0.00025, Output: 0.00125},
		"claude-3.5-haiku":  {Input: 0.0008, Output: 0.004},
	},
	"deepseek": {
		"deepseek-v3": {Input: 0, Output: 0},
		"deepseek-r1": {Input: 0.00055, Output: 0.00219},
	},
	"mistral": {
		"mistral-small":  {Input: 0.001, Output: 0.003},
		"mistral-medium": {Input: 0.0027, Output: 0.0081},
		"mistral-large":  {Input: 0.008, Output: 0.024},
	},
}
