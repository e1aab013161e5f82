package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shelf/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
}

func TestChatReturnsContent(t *testing.T) {
	var got wireChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": `{"name": "invoice_march"}`},
			"done":    true,
		})
	})

	content, err := client.Chat(context.Background(), ChatRequest{
		Model:  "gemma3:4b",
		Prompt: "name this document",
		Format: json.RawMessage(`{"type":"object"}`),
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if content != `{"name": "invoice_march"}` {
		t.Errorf("content = %q", content)
	}
	if got.Model != "gemma3:4b" || got.Stream {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestChatEncodesImagesBase64(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	var got wireChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "ok"},
			"done":    true,
		})
	})

	if _, err := client.Chat(context.Background(), ChatRequest{
		Model:  "deepocr",
		Prompt: "read the text",
		Images: [][]byte{raw},
	}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	want := base64.StdEncoding.EncodeToString(raw)
	if len(got.Messages) != 1 || len(got.Messages[0].Images) != 1 || got.Messages[0].Images[0] != want {
		t.Errorf("images = %+v", got.Messages)
	}
}

func TestChatRetriesTransientFailureOnce(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "ok"},
			"done":    true,
		})
	})

	content, err := client.Chat(context.Background(), ChatRequest{Model: "gemma3:4b", Prompt: "x"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if content != "ok" {
		t.Errorf("content = %q", content)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestChatGivesUpAfterRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	_, err := client.Chat(context.Background(), ChatRequest{Model: "gemma3:4b", Prompt: "x"})
	if !errors.Is(err, services.ErrNaming) {
		t.Errorf("err = %v, want ErrNaming", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestChatDoesNotRetryAPIError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	})

	_, err := client.Chat(context.Background(), ChatRequest{Model: "missing", Prompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestChatTimeoutWrapsMarker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL},
		WithSleeper(func(time.Duration) {}),
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
	)

	_, err := client.Chat(context.Background(), ChatRequest{Model: "gemma3:4b", Prompt: "x"})
	if !errors.Is(err, services.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestChatRequiresModel(t *testing.T) {
	client := NewClient(Config{})
	_, err := client.Chat(context.Background(), ChatRequest{Prompt: "x"})
	if !errors.Is(err, services.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}
