package settings

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/qnkhuat/deepread/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Layout(t *testing.T) {
	data, err := Encode(State{
		CurrentModel: &[2]string{"openai", "gpt-4o"},
		Providers: map[string]ProviderState{
			"openai": {APIKey: "sk", BaseURL: "", Enabled: true, Models: []string{"gpt-4o"}},
		},
	})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(CurrentVersion), raw["version"])
	assert.Equal(t, []interface{}{"openai", "gpt-4o"}, raw["currentModel"])

	openai := raw["providers"].(map[string]interface{})["openai"].(map[string]interface{})
	assert.Equal(t, "sk", openai["apiKey"])
	assert.Equal(t, true, openai["enabled"])
	assert.Contains(t, openai, "baseUrl")
}

func TestEncode_NullSelection(t *testing.T) {
	data, err := Encode(State{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"currentModel":null,"providers":{}}`, string(data))
}

func TestDecode(t *testing.T) {
	t.Run("unversioned blob is upgraded", func(t *testing.T) {
		s, err := Decode([]byte(`{"currentModel":["ollama","llama3"],"providers":{"ollama":{"apiKey":"","baseUrl":"http://localhost:11434","enabled":true,"models":["llama3"]}}}`))
		require.NoError(t, err)
		assert.Equal(t, CurrentVersion, s.Version)
		require.NotNil(t, s.CurrentModel)
		assert.Equal(t, [2]string{"ollama", "llama3"}, *s.CurrentModel)
		assert.True(t, s.Providers["ollama"].Enabled)
	})

	t.Run("rejects malformed selection", func(t *testing.T) {
		_, err := Decode([]byte(`{"currentModel":["openai"],"providers":{}}`))
		assert.Error(t, err)
	})

	t.Run("rejects wrong types", func(t *testing.T) {
		_, err := Decode([]byte(`{"providers":{"openai":{"enabled":"yes"}}}`))
		assert.Error(t, err)
	})

	t.Run("rejects missing providers", func(t *testing.T) {
		_, err := Decode([]byte(`{"version":1}`))
		assert.Error(t, err)
	})

	t.Run("rejects future versions", func(t *testing.T) {
		_, err := Decode([]byte(`{"version":99,"providers":{}}`))
		assert.Error(t, err)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := Decode([]byte(`{`))
		assert.Error(t, err)
	})
}

func TestCaptureApply(t *testing.T) {
	reg := provider.NewRegistry(nil, nil)
	reg.Restore([]provider.Provider{
		{Name: "openai", Credentials: provider.Credentials{APIKey: "sk"}, Enabled: true, Models: []string{"gpt-4o-mini", "gpt-4o"}},
		{Name: "ollama", Credentials: provider.Credentials{BaseURL: "http://localhost:11434"}, LastError: "connection refused"},
	}, &provider.Selection{Provider: "openai", Model: "gpt-4o-mini"})

	state := Capture(reg)
	require.NotNil(t, state.CurrentModel)
	assert.Equal(t, [2]string{"openai", "gpt-4o-mini"}, *state.CurrentModel)
	assert.Len(t, state.Providers, 4)

	restored := provider.NewRegistry(nil, nil)
	Apply(restored, state)

	p, err := restored.Get("openai")
	require.NoError(t, err)
	assert.True(t, p.Enabled)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, p.Models)

	p, _ = restored.Get("ollama")
	assert.False(t, p.Enabled)
	assert.Equal(t, "http://localhost:11434", p.Credentials.BaseURL)
	assert.Equal(t, "connection refused", p.LastError)
	assert.Equal(t, "connection refused", state.Providers["ollama"].LastError)

	sel, ok := restored.Selection()
	assert.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", sel.Model)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	first := State{Providers: map[string]ProviderState{"openai": {APIKey: "sk-1"}}}
	require.NoError(t, store.Save(ctx, first))

	second := State{
		CurrentModel: &[2]string{"openai", "gpt-4o"},
		Providers:    map[string]ProviderState{"openai": {APIKey: "sk-2", Enabled: true, Models: []string{"gpt-4o"}}},
	}
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, got.Version)
	assert.Equal(t, "sk-2", got.Providers["openai"].APIKey)
	assert.Equal(t, [2]string{"openai", "gpt-4o"}, *got.CurrentModel)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, State{}))
	require.NoError(t, store.Save(ctx, State{}))
	assert.Equal(t, 2, store.Saves())

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got.Providers)
}
