// Package provider keeps the catalog of LLM providers: credentials, enabled
// state, cached model lists and the current (provider, model) selection.
package provider

import (
	"strings"

	"github.com/qnkhuat/deepread/internal/llm"
)

// Field names a credential field.
type Field string

const (
	FieldAPIKey  Field = "api_key"
	FieldBaseURL Field = "base_url"
)

// Credentials are the user-supplied connection settings of a provider.
type Credentials struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// Spec describes the fixed policy of one provider kind.
type Spec interface {
	Kind() llm.Kind
	DisplayName() string
	// DefaultBaseURL is empty when the user must supply one.
	DefaultBaseURL() string
	RequiredFields() []Field
	IsConfigured(Credentials) bool
	// RequestCredentials returns the credentials to send, defaults applied.
	RequestCredentials(Credentials) Credentials
}

// hostedSpec covers providers that need an API key and ship a default endpoint.
type hostedSpec struct {
	kind        llm.Kind
	displayName string
	baseURL     string
}

func (s hostedSpec) Kind() llm.Kind          { return s.kind }
func (s hostedSpec) DisplayName() string     { return s.displayName }
func (s hostedSpec) DefaultBaseURL() string  { return s.baseURL }
func (s hostedSpec) RequiredFields() []Field { return []Field{FieldAPIKey} }

func (s hostedSpec) IsConfigured(c Credentials) bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (s hostedSpec) RequestCredentials(c Credentials) Credentials {
	out := Credentials{APIKey: strings.TrimSpace(c.APIKey), BaseURL: strings.TrimSpace(c.BaseURL)}
	if out.BaseURL == "" {
		out.BaseURL = s.baseURL
	}
	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	return out
}

// localSpec covers self-hosted providers that need a base URL and no key.
type localSpec struct {
	kind        llm.Kind
	displayName string
}

func (s localSpec) Kind() llm.Kind          { return s.kind }
func (s localSpec) DisplayName() string     { return s.displayName }
func (s localSpec) DefaultBaseURL() string  { return "" }
func (s localSpec) RequiredFields() []Field { return []Field{FieldBaseURL} }

func (s localSpec) IsConfigured(c Credentials) bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

func (s localSpec) RequestCredentials(c Credentials) Credentials {
	return Credentials{
		APIKey:  strings.TrimSpace(c.APIKey),
		BaseURL: strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"),
	}
}

// OllamaHint is suggested to users configuring a local Ollama server.
const OllamaHint = "http://localhost:11434"

var (
	OpenAISpec    Spec = hostedSpec{kind: llm.OpenAI, displayName: "OpenAI", baseURL: "https://api.openai.com/v1"}
	AnthropicSpec Spec = hostedSpec{kind: llm.Anthropic, displayName: "Anthropic", baseURL: "https://api.anthropic.com"}
	DeepSeekSpec  Spec = hostedSpec{kind: llm.DeepSeek, displayName: "DeepSeek", baseURL: "https://api.deepseek.com/v1"}
	OllamaSpec    Spec = localSpec{kind: llm.Ollama, displayName: "Ollama (local)"}
)

// BuiltinSpecs returns the supported providers in display order.
func BuiltinSpecs() []Spec {
	return []Spec{OpenAISpec, AnthropicSpec, DeepSeekSpec, OllamaSpec}
}

// Missing lists the required fields of spec that creds leaves empty.
func Missing(spec Spec, creds Credentials) []string {
	var missing []string
	for _, f := range spec.RequiredFields() {
		switch f {
		case FieldAPIKey:
			if strings.TrimSpace(creds.APIKey) == "" {
				missing = append(missing, string(f))
			}
		case FieldBaseURL:
			if strings.TrimSpace(creds.BaseURL) == "" {
				missing = append(missing, string(f))
			}
		}
	}
	return missing
}
