package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStreamAssemblesChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "llama3", req.Model)

		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"model":"llama3","message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")

	var got string
	err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}},
		func(chunk string) error {
			got += chunk
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
}

func TestChatStreamStopsOnHandlerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"a"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"b"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")

	calls := 0
	err := provider.ChatStream(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}},
		func(chunk string) error {
			calls++
			return fmt.Errorf("stop here")
		})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestChatReturnsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "missing-model")
	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestBuildRequestNormalizesRoles(t *testing.T) {
	provider := NewOllamaProvider("http://localhost:11434", "llama3")

	req := provider.buildRequest([]llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
		{Role: "model", Content: "hello"},
	}, false, nil)

	require.Len(t, req.Messages, 3)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "assistant", req.Messages[2].Role)
}
