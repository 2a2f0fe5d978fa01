package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, client ChatClient, req ChatRequest) ([]string, error) {
	t.Helper()
	var chunks []string
	err := client.StreamChat(context.Background(), req, func(content string) error {
		chunks = append(chunks, content)
		return nil
	})
	return chunks, err
}

func TestOpenAIClient(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/models":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"object":"list","data":[{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"},{"id":"gpt-4o","object":"model","created":1,"owned_by":"openai"}]}`)
		case "/chat/completions":
			w.Header().Set("Content-Type", "text/event-stream")
			for _, c := range []string{"Hello", " ", "world"} {
				fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o-mini\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", c)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewOpenAIClient(Config{Name: "openai", Kind: OpenAI, APIKey: "sk-test", BaseURL: srv.URL}, openAIBaseURL)

	t.Run("lists models in order", func(t *testing.T) {
		models, err := client.ListModels(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, models)
		assert.Equal(t, "Bearer sk-test", gotAuth)
	})

	t.Run("streams deltas in arrival order", func(t *testing.T) {
		chunks, err := collect(t, client, ChatRequest{
			Model:    "gpt-4o-mini",
			Messages: []Message{{Role: RoleSystem, Content: "doc"}, {Role: RoleUser, Content: "hi"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello", " ", "world"}, chunks)
		assert.Equal(t, "Hello world", strings.Join(chunks, ""))
	})
}

func TestOpenAIClient_Rejected(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	client := NewOpenAIClient(Config{Name: "openai", APIKey: "bad", BaseURL: srv.URL}, openAIBaseURL)
	_, err := client.ListModels(context.Background())

	require.Error(t, err)
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.True(t, rejected.Auth())
	assert.Equal(t, "openai", rejected.Provider)
	assert.Equal(t, 1, calls, "no automatic retry")
}

func TestOpenAIClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewOpenAIClient(Config{Name: "deepseek", APIKey: "sk", BaseURL: url}, deepSeekBaseURL)
	_, err := client.ListModels(context.Background())

	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
}

func TestOllamaClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"models":[{"name":"llama3:latest","model":"llama3:latest"},{"name":"qwen2.5:latest","model":"qwen2.5:latest"}]}`)
		case "/api/chat":
			w.Header().Set("Content-Type", "application/x-ndjson")
			for _, c := range []string{"The", " paper", " discusses X."} {
				fmt.Fprintf(w, "{\"model\":\"llama3\",\"message\":{\"role\":\"assistant\",\"content\":%q},\"done\":false}\n", c)
			}
			fmt.Fprint(w, "{\"model\":\"llama3\",\"message\":{\"role\":\"assistant\",\"content\":\"\"},\"done\":true}\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewOllamaClient(Config{Name: "ollama", BaseURL: srv.URL})
	require.NoError(t, err)

	t.Run("lists installed models", func(t *testing.T) {
		models, err := client.ListModels(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"llama3:latest", "qwen2.5:latest"}, models)
	})

	t.Run("streams chat", func(t *testing.T) {
		chunks, err := collect(t, client, ChatRequest{Model: "llama3", Messages: []Message{{Role: RoleUser, Content: "Summarize"}}})
		require.NoError(t, err)
		assert.Equal(t, "The paper discusses X.", strings.Join(chunks, ""))
	})

	t.Run("callback error aborts the stream", func(t *testing.T) {
		seen := 0
		err := client.StreamChat(context.Background(), ChatRequest{Model: "llama3"}, func(string) error {
			seen++
			return fmt.Errorf("stop")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, seen)
	})
}

func TestOllamaClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"forbidden"}`)
	}))
	defer srv.Close()

	client, err := NewOllamaClient(Config{Name: "ollama", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.ListModels(context.Background())
	assert.True(t, IsRejected(err))
}

func TestAnthropicClient_ListModels(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"claude-3-5-sonnet-latest","type":"model","display_name":"Claude 3.5 Sonnet","created_at":"2024-10-22T00:00:00Z"}],"has_more":false,"first_id":"claude-3-5-sonnet-latest","last_id":"claude-3-5-sonnet-latest"}`)
	}))
	defer srv.Close()

	client := NewAnthropicClient(Config{Name: "anthropic", APIKey: "sk-ant", BaseURL: srv.URL})
	models, err := client.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"claude-3-5-sonnet-latest"}, models)
	assert.Equal(t, "sk-ant", gotKey)
}

func TestAnthropicClient_StreamChat(t *testing.T) {
	bodies := make(chan map[string]interface{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		bodies <- body

		w.Header().Set("Content-Type", "text/event-stream")
		event := func(name, data string) { fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data) }

		event("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-3-5-sonnet-latest","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":12,"output_tokens":1}}}`)
		event("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		event("ping", `{"type":"ping"}`)
		for _, c := range []string{"Hello", " ", "world"} {
			event("content_block_delta", fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, c))
		}
		event("content_block_stop", `{"type":"content_block_stop","index":0}`)
		event("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":3}}`)
		event("message_stop", `{"type":"message_stop"}`)
	}))
	defer srv.Close()

	client := NewAnthropicClient(Config{Name: "anthropic", APIKey: "sk-ant", BaseURL: srv.URL})
	chunks, err := collect(t, client, ChatRequest{
		Model: "claude-3-5-sonnet-latest",
		Messages: []Message{
			{Role: RoleSystem, Content: "the paper"},
			{Role: RoleUser, Content: "What is it about?"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " ", "world"}, chunks)

	body := <-bodies
	assert.Equal(t, "claude-3-5-sonnet-latest", body["model"])
	assert.EqualValues(t, DefaultMaxTokens, body["max_tokens"])

	system, ok := body["system"].([]interface{})
	require.True(t, ok, "system prompt is sent in the system field")
	require.Len(t, system, 1)
	assert.Equal(t, "the paper", system[0].(map[string]interface{})["text"])

	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]interface{})["role"])
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "prompt"},
		{Role: RoleSystem, Content: "document"},
		{Role: RoleUser, Content: "a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleAssistant, Content: "c"},
	})

	assert.Equal(t, "prompt\n\ndocument", system)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "a\n\nb"},
		{Role: RoleAssistant, Content: "c"},
	}, turns)
}
