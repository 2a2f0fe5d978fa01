// Package settings persists provider credentials and the current model
// selection as one versioned JSON blob.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/qnkhuat/deepread/internal/provider"
	"github.com/xeipuuv/gojsonschema"
)

// CurrentVersion is written into every saved blob.
const CurrentVersion = 1

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("settings not found")

// ProviderState is the persisted part of a provider.
type ProviderState struct {
	APIKey  string   `json:"apiKey"`
	BaseURL string   `json:"baseUrl"`
	Enabled bool     `json:"enabled"`
	Models  []string `json:"models"`
	// LastError is the most recent discovery failure, kept across restarts.
	LastError string `json:"lastError,omitempty"`
}

// State is the persisted blob.
type State struct {
	Version      int                      `json:"version"`
	CurrentModel *[2]string               `json:"currentModel"`
	Providers    map[string]ProviderState `json:"providers"`
}

const stateSchema = `{
  "type": "object",
  "required": ["providers"],
  "properties": {
    "version": {"type": "integer", "minimum": 0},
    "currentModel": {
      "oneOf": [
        {"type": "null"},
        {"type": "array", "items": {"type": "string"}, "minItems": 2, "maxItems": 2}
      ]
    },
    "providers": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "apiKey": {"type": "string"},
          "baseUrl": {"type": "string"},
          "enabled": {"type": "boolean"},
          "models": {"type": ["array", "null"], "items": {"type": "string"}},
          "lastError": {"type": "string"}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func schema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(stateSchema))
	})
	return compiledSchema, schemaErr
}

// Encode serialises s, stamping the current version.
func Encode(s State) ([]byte, error) {
	s.Version = CurrentVersion
	if s.Providers == nil {
		s.Providers = map[string]ProviderState{}
	}
	return json.Marshal(s)
}

// Decode validates and parses a persisted blob. Blobs without a version are
// treated as version 0 and upgraded.
func Decode(data []byte) (State, error) {
	sch, err := schema()
	if err != nil {
		return State{}, fmt.Errorf("failed to compile settings schema: %w", err)
	}

	result, err := sch.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return State{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return State{}, fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.Version > CurrentVersion {
		return State{}, fmt.Errorf("settings version %d is newer than supported version %d", s.Version, CurrentVersion)
	}

	return migrate(s), nil
}

func migrate(s State) State {
	if s.Providers == nil {
		s.Providers = map[string]ProviderState{}
	}
	// Version 0 used the same layout without the version field.
	s.Version = CurrentVersion
	return s
}

// Capture copies the registry into a State.
func Capture(reg *provider.Registry) State {
	s := State{Version: CurrentVersion, Providers: map[string]ProviderState{}}
	for _, p := range reg.Providers() {
		s.Providers[p.Name] = ProviderState{
			APIKey:  p.Credentials.APIKey,
			BaseURL: p.Credentials.BaseURL,
			Enabled:   p.Enabled,
			Models:    p.Models,
			LastError: p.LastError,
		}
	}
	if sel, ok := reg.Selection(); ok {
		s.CurrentModel = &[2]string{sel.Provider, sel.Model}
	}
	return s
}

// Apply restores s into the registry.
func Apply(reg *provider.Registry, s State) {
	providers := make([]provider.Provider, 0, len(s.Providers))
	for name, ps := range s.Providers {
		providers = append(providers, provider.Provider{
			Name:        name,
			Credentials: provider.Credentials{APIKey: ps.APIKey, BaseURL: ps.BaseURL},
			Enabled:     ps.Enabled,
			Models:      ps.Models,
			LastError:   ps.LastError,
		})
	}

	var sel *provider.Selection
	if s.CurrentModel != nil {
		sel = &provider.Selection{Provider: s.CurrentModel[0], Model: s.CurrentModel[1]}
	}
	reg.Restore(providers, sel)
}
