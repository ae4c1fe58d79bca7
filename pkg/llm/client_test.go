package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const completionBody = `{
	"id":"chatcmpl-1",
	"object":"chat.completion",
	"created":1730366400,
	"model":"gpt-4o-mini",
	"choices":[
		{
			"index":0,
			"finish_reason":"stop",
			"logprobs":null,
			"message":{
				"role":"assistant",
				"content":"Howdy, how can I help you today?",
				"tool_calls":[]
			}
		}
	],
	"usage":{
		"prompt_tokens":10,
		"completion_tokens":12,
		"total_tokens":22
	}
}`

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		DefaultModel: "assistant",
		Timeout:      5 * time.Second,
		LogLevel:     "error",
		Models: map[string]ModelConfig{
			"assistant": {ModelName: "gpt-4o-mini"},
		},
	}
}

func TestClientComplete(t *testing.T) {
	var (
		mu        sync.Mutex
		lastBody  []byte
		lastPath  string
		callCount int
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
		lastPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		lastBody = body

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := client.Complete(ctx, &Prompt{
		Messages: []Message{
			{Role: "system", Content: "You are an assistant."},
			{Role: "user", Content: "hi"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "gpt-4o-mini", resp.Model)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "Howdy, how can I help you today?", resp.Text())
	require.Equal(t, 22, resp.Usage.TotalTokens)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/chat/completions", lastPath)
	require.Equal(t, 1, callCount, "a successful run performs exactly one outbound call")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(lastBody, &payload))
	require.Equal(t, "gpt-4o-mini", payload["model"])
	msgs, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
}

func TestClientCompleteNoRetryOnFailure(t *testing.T) {
	var (
		mu        sync.Mutex
		callCount int
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		callCount++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Complete(context.Background(), &Prompt{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	require.True(t, IsServiceError(err))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, callCount, "a failing run still performs exactly one outbound call")
}

func TestClientCompleteRejectedCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Complete(context.Background(), &Prompt{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	require.True(t, IsAuthError(err), "401 should surface as an auth error")
}

func TestClientCompleteUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client, err := NewClient(testConfig(base))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Complete(context.Background(), &Prompt{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	require.True(t, IsServiceError(err), "dead socket should surface as a service error")
}

func TestClientMissingCredentialSkipsNetwork(t *testing.T) {
	cfg := testConfig("https://example.invalid/v1")
	cfg.APIKey = ""

	_, err := NewClient(cfg)
	require.Error(t, err)
	require.True(t, IsAuthError(err), "missing credential should fail before any call")
}

func TestClientCompleteEmptyPrompt(t *testing.T) {
	client, err := NewClient(testConfig("https://example.invalid/v1"))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Complete(context.Background(), nil)
	require.Error(t, err)

	_, err = client.Complete(context.Background(), &Prompt{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one message")
}

func TestClientPromptChangesOnlyPayload(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		mu.Lock()
		bodies = append(bodies, payload)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer client.Close()

	for _, question := range []string{"first question", "second question"} {
		_, err := client.Complete(context.Background(), &Prompt{
			Messages: []Message{{Role: "user", Content: question}},
		})
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	require.Equal(t, bodies[0]["model"], bodies[1]["model"])
	first := bodies[0]["messages"].([]any)[0].(map[string]any)
	second := bodies[1]["messages"].([]any)[0].(map[string]any)
	require.Equal(t, "first question", first["content"])
	require.Equal(t, "second question", second["content"])
}

func TestClientGetConfig(t *testing.T) {
	cfg := testConfig("https://example.invalid/v1")
	client, err := NewClient(cfg)
	require.NoError(t, err)
	defer client.Close()

	returned := client.GetConfig()
	require.NotNil(t, returned)
	require.Equal(t, cfg.BaseURL, returned.BaseURL)
	require.Equal(t, cfg.DefaultModel, returned.DefaultModel)
	require.NotSame(t, cfg, returned)
}

func TestClientOptions(t *testing.T) {
	t.Run("WithLogger", func(t *testing.T) {
		customLogger := NewLogger("debug")
		client, err := NewClient(testConfig("https://example.invalid/v1"), WithLogger(customLogger))
		require.NoError(t, err)
		defer client.Close()
		require.Equal(t, customLogger, client.logger)
	})

	t.Run("WithHTTPClient", func(t *testing.T) {
		custom := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient(testConfig("https://example.invalid/v1"), WithHTTPClient(custom))
		require.NoError(t, err)
		defer client.Close()
		require.NotNil(t, client.httpClient)
	})
}
