package provider

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLister records discovery calls and returns canned results per provider.
type stubLister struct {
	mu     sync.Mutex
	calls  []Provider
	models map[string][]string
	errs   map[string]error
}

func (s *stubLister) ListModels(_ context.Context, p Provider) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, p)
	if err := s.errs[p.Name]; err != nil {
		return nil, err
	}
	return s.models[p.Name], nil
}

func (s *stubLister) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newStub() *stubLister {
	return &stubLister{models: map[string][]string{}, errs: map[string]error{}}
}

func TestRegistry_BuiltinOrder(t *testing.T) {
	r := NewRegistry(newStub(), nil)

	var names []string
	for _, p := range r.Providers() {
		names = append(names, p.Name)
		assert.False(t, p.Enabled)
		assert.Empty(t, p.Models)
	}
	assert.Equal(t, []string{"openai", "anthropic", "deepseek", "ollama"}, names)
}

func TestRegistry_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		creds    Credentials
		want     bool
	}{
		{name: "openai with key", provider: "openai", creds: Credentials{APIKey: "sk"}, want: true},
		{name: "openai without key", provider: "openai", creds: Credentials{BaseURL: "https://proxy"}, want: false},
		{name: "anthropic whitespace key", provider: "anthropic", creds: Credentials{APIKey: "  "}, want: false},
		{name: "deepseek with key", provider: "deepseek", creds: Credentials{APIKey: "sk"}, want: true},
		{name: "ollama with base url", provider: "ollama", creds: Credentials{BaseURL: "http://localhost:11434"}, want: true},
		{name: "ollama with key only", provider: "ollama", creds: Credentials{APIKey: "x"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(newStub(), nil)
			require.NoError(t, r.Configure(tt.provider, tt.creds))
			assert.Equal(t, tt.want, r.IsConfigured(tt.provider))
		})
	}

	assert.False(t, NewRegistry(newStub(), nil).IsConfigured("nope"))
}

func TestRegistry_ValidateAndEnable(t *testing.T) {
	t.Run("success enables and caches models", func(t *testing.T) {
		stub := newStub()
		stub.models["openai"] = []string{"gpt-4o-mini", "gpt-4o"}
		r := NewRegistry(stub, nil)
		require.NoError(t, r.Configure("openai", Credentials{APIKey: "sk-valid-looking"}))

		models, err := r.ValidateAndEnable(context.Background(), "openai")
		require.NoError(t, err)
		assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, models)

		p, err := r.Get("openai")
		require.NoError(t, err)
		assert.True(t, p.Enabled)
		assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, p.Models)
		assert.Empty(t, p.LastError)
	})

	t.Run("request credentials carry the default base url", func(t *testing.T) {
		stub := newStub()
		r := NewRegistry(stub, nil)
		require.NoError(t, r.Configure("anthropic", Credentials{APIKey: "sk-ant"}))

		_, err := r.ValidateAndEnable(context.Background(), "anthropic")
		require.NoError(t, err)
		require.Len(t, stub.calls, 1)
		assert.Equal(t, "https://api.anthropic.com", stub.calls[0].Credentials.BaseURL)
	})

	t.Run("missing base url fails before any network call", func(t *testing.T) {
		stub := newStub()
		r := NewRegistry(stub, nil)

		_, err := r.ValidateAndEnable(context.Background(), "ollama")

		var cfgErr *llm.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, []string{"base_url"}, cfgErr.Missing)
		assert.Equal(t, 0, stub.callCount())

		p, _ := r.Get("ollama")
		assert.False(t, p.Enabled)
		assert.NotEmpty(t, p.LastError)
	})

	t.Run("failure keeps provider disabled and records error", func(t *testing.T) {
		stub := newStub()
		stub.errs["openai"] = &llm.RejectedError{Provider: "openai", StatusCode: 401, Err: errors.New("bad key")}
		r := NewRegistry(stub, nil)
		require.NoError(t, r.Configure("openai", Credentials{APIKey: "bad"}))

		_, err := r.ValidateAndEnable(context.Background(), "openai")
		assert.True(t, llm.IsRejected(err))

		p, _ := r.Get("openai")
		assert.False(t, p.Enabled)
		assert.Contains(t, p.LastError, "bad key")
		assert.Equal(t, 1, stub.callCount(), "no silent retry")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewRegistry(newStub(), nil).ValidateAndEnable(context.Background(), "mystery")
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}

func TestRegistry_EnableOnlyThroughValidation(t *testing.T) {
	stub := newStub()
	stub.models["deepseek"] = []string{"deepseek-chat"}
	r := NewRegistry(stub, nil)

	require.NoError(t, r.Configure("deepseek", Credentials{APIKey: "sk"}))
	p, _ := r.Get("deepseek")
	assert.False(t, p.Enabled, "configure does not enable")

	assert.ErrorIs(t, r.Select("deepseek", "deepseek-chat"), ErrNotEnabled)
	_, err := r.RefreshModels(context.Background(), "deepseek")
	assert.ErrorIs(t, err, ErrNotEnabled)
	assert.Equal(t, 0, stub.callCount())

	p, _ = r.Get("deepseek")
	assert.False(t, p.Enabled)
}

func TestRegistry_Disable(t *testing.T) {
	stub := newStub()
	stub.models["openai"] = []string{"gpt-4o"}
	r := NewRegistry(stub, nil)
	require.NoError(t, r.Configure("openai", Credentials{APIKey: "sk"}))
	_, err := r.ValidateAndEnable(context.Background(), "openai")
	require.NoError(t, err)
	require.NoError(t, r.Select("openai", "gpt-4o"))

	require.NoError(t, r.Disable("openai"))

	p, _ := r.Get("openai")
	assert.False(t, p.Enabled)
	assert.Equal(t, []string{"gpt-4o"}, p.Models, "cached models survive disable")
	assert.Equal(t, "sk", p.Credentials.APIKey)

	_, ok := r.Selection()
	assert.False(t, ok, "selection must reference an enabled provider")
}

func TestRegistry_ConfigureDisablesWhenPolicyBreaks(t *testing.T) {
	stub := newStub()
	r := NewRegistry(stub, nil)
	require.NoError(t, r.Configure("openai", Credentials{APIKey: "sk"}))
	_, err := r.ValidateAndEnable(context.Background(), "openai")
	require.NoError(t, err)

	require.NoError(t, r.Configure("openai", Credentials{}))
	p, _ := r.Get("openai")
	assert.False(t, p.Enabled)
}

func TestRegistry_RefreshModels(t *testing.T) {
	stub := newStub()
	stub.models["ollama"] = []string{"llama3"}
	r := NewRegistry(stub, nil)
	require.NoError(t, r.Configure("ollama", Credentials{BaseURL: "http://localhost:11434/"}))
	_, err := r.ValidateAndEnable(context.Background(), "ollama")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", stub.calls[0].Credentials.BaseURL)

	stub.models["ollama"] = []string{"llama3", "qwen2.5"}
	models, err := r.RefreshModels(context.Background(), "ollama")
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "qwen2.5"}, models)

	stub.errs["ollama"] = &llm.UnreachableError{Provider: "ollama", Err: errors.New("refused")}
	_, err = r.RefreshModels(context.Background(), "ollama")
	assert.True(t, llm.IsUnreachable(err))

	p, _ := r.Get("ollama")
	assert.Equal(t, []string{"llama3", "qwen2.5"}, p.Models, "failed refresh keeps the previous cache")
	assert.True(t, p.Enabled)
	assert.NotEmpty(t, p.LastError)
}

func TestRegistry_DiscoverMissing(t *testing.T) {
	stub := newStub()
	stub.models["openai"] = []string{"gpt-4o"}
	r := NewRegistry(stub, nil)
	r.Restore([]Provider{
		{Name: "openai", Credentials: Credentials{APIKey: "sk"}, Enabled: true},
		{Name: "anthropic", Credentials: Credentials{APIKey: "sk"}, Enabled: true, Models: []string{"claude"}},
	}, nil)

	tried, err := r.DiscoverMissing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tried)
	assert.Equal(t, 1, stub.callCount(), "providers with cached models are skipped")

	p, _ := r.Get("openai")
	assert.Equal(t, []string{"gpt-4o"}, p.Models)

	t.Run("failures are recorded", func(t *testing.T) {
		stub := newStub()
		stub.errs["deepseek"] = &llm.RejectedError{Provider: "deepseek", StatusCode: 401, Err: errors.New("bad key")}
		r := NewRegistry(stub, nil)
		r.Restore([]Provider{{Name: "deepseek", Credentials: Credentials{APIKey: "sk"}, Enabled: true}}, nil)

		tried, err := r.DiscoverMissing(context.Background())
		assert.Equal(t, 1, tried)
		assert.True(t, llm.IsRejected(err))

		p, _ := r.Get("deepseek")
		assert.NotEmpty(t, p.LastError)
		assert.True(t, p.Enabled, "a failed discovery keeps enabled unchanged")
	})
}

// reconfiguringLister swaps the credentials while the discovery call is in
// flight, the way a concurrent HTTP configure would.
type reconfiguringLister struct {
	r     *Registry
	creds Credentials
}

func (l *reconfiguringLister) ListModels(_ context.Context, p Provider) ([]string, error) {
	if err := l.r.Configure(p.Name, l.creds); err != nil {
		return nil, err
	}
	return []string{"gpt-4o"}, nil
}

func TestRegistry_ValidateAndEnableDiscardsStaleResult(t *testing.T) {
	lister := &reconfiguringLister{creds: Credentials{APIKey: "sk-unchecked"}}
	r := NewRegistry(lister, nil)
	lister.r = r
	require.NoError(t, r.Configure("openai", Credentials{APIKey: "sk-checked"}))

	_, err := r.ValidateAndEnable(context.Background(), "openai")
	assert.ErrorIs(t, err, ErrCredentialsChanged)

	p, _ := r.Get("openai")
	assert.False(t, p.Enabled)
	assert.Empty(t, p.Models)
	assert.Equal(t, "sk-unchecked", p.Credentials.APIKey)
}

func TestRegistry_Restore(t *testing.T) {
	r := NewRegistry(newStub(), nil)
	r.Restore([]Provider{
		{Name: "openai", Credentials: Credentials{APIKey: "sk"}, Enabled: true, Models: []string{"gpt-4o"}},
		{Name: "ollama", Enabled: true},
		{Name: "retired", Enabled: true},
	}, &Selection{Provider: "openai", Model: "gpt-4o"})

	p, _ := r.Get("openai")
	assert.True(t, p.Enabled)

	p, _ = r.Get("ollama")
	assert.False(t, p.Enabled, "enabled requires a satisfied policy")

	sel, ok := r.Selection()
	require.True(t, ok)
	assert.Equal(t, Selection{Provider: "openai", Model: "gpt-4o"}, sel)

	r.Restore(nil, &Selection{Provider: "ollama", Model: "llama3"})
	_, ok = r.Selection()
	assert.False(t, ok)
}

func TestRegistry_SelectAcceptsUncachedModel(t *testing.T) {
	r := NewRegistry(newStub(), nil)
	r.Restore([]Provider{{Name: "openai", Credentials: Credentials{APIKey: "sk"}, Enabled: true, Models: []string{"gpt-4o"}}}, nil)

	require.NoError(t, r.Select("openai", "gpt-4.1"))
	sel, ok := r.Selection()
	assert.True(t, ok)
	assert.Equal(t, "gpt-4.1", sel.Model)

	assert.Error(t, r.Select("openai", ""))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []string{"gpt-4o-mini", "GPT-4o"}, FilterModels([]string{"gpt-4o-mini", "GPT-4o", "o1"}, "4O"))
	assert.Equal(t, []string{"a", "b"}, FilterModels([]string{"a", "b"}, " "))
	assert.Nil(t, FilterModels([]string{"a"}, "zzz"))

	_, ok := DefaultModel(Provider{})
	assert.False(t, ok)
	m, ok := DefaultModel(Provider{Models: []string{"x", "y"}})
	assert.True(t, ok)
	assert.Equal(t, "x", m)

	r := NewRegistry(newStub(), nil)
	assert.False(t, r.AnyConfigured())
	assert.False(t, r.AnyEnabled())
	_, ok = r.FirstAvailableModel()
	assert.False(t, ok)

	r.Restore([]Provider{
		{Name: "anthropic", Credentials: Credentials{APIKey: "sk"}, Enabled: true},
		{Name: "ollama", Credentials: Credentials{BaseURL: "http://h"}, Enabled: true, Models: []string{"llama3"}},
	}, nil)
	assert.True(t, r.AnyConfigured())
	assert.True(t, r.AnyEnabled())

	sel, ok := r.FirstAvailableModel()
	require.True(t, ok)
	assert.Equal(t, Selection{Provider: "ollama", Model: "llama3"}, sel)
}
