package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget-meal-planner/internal/config"
)

type blockingGenerator struct{}

func (blockingGenerator) GenerateContent(ctx context.Context, _ string) (ContentResponse, error) {
	<-ctx.Done()
	return ContentResponse{}, ctx.Err()
}

type failingGenerator struct{ err error }

func (f failingGenerator) GenerateContent(context.Context, string) (ContentResponse, error) {
	return ContentResponse{}, f.err
}

func (f failingGenerator) GenerateFromImage(context.Context, string, Image) (ContentResponse, error) {
	return ContentResponse{}, f.err
}

type echoGenerator struct{}

func (echoGenerator) GenerateContent(_ context.Context, prompt string) (ContentResponse, error) {
	return ContentResponse{Content: prompt}, nil
}

func TestGenerateErrors(t *testing.T) {
	t.Run("TimeoutIsDistinguishable", func(t *testing.T) {
		_, err := Generate(context.Background(), blockingGenerator{}, "p", 10*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.ErrorIs(t, err, ErrTransport)
		assert.True(t, IsTimeout(err))
	})

	t.Run("PlainFailureIsTransport", func(t *testing.T) {
		cause := errors.New("connection refused")
		_, err := Generate(context.Background(), failingGenerator{err: cause}, "p", time.Second)
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, cause)
		assert.False(t, IsTimeout(err))
	})

	t.Run("KeepsStatusCode", func(t *testing.T) {
		te := &TransportError{Provider: "groq", StatusCode: 503, Err: errors.New("busy")}
		_, err := GenerateFromImage(context.Background(), failingGenerator{err: te}, "p", Image{}, 0)
		var got *TransportError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, 503, got.StatusCode)
		assert.False(t, got.Timeout)
	})

	t.Run("Success", func(t *testing.T) {
		resp, err := Generate(context.Background(), echoGenerator{}, "hello", 0)
		require.NoError(t, err)
		assert.Equal(t, "hello", resp.Content)
	})
}

func newTestGroq(url string) *GroqClient {
	c := NewGroqClient(&config.Config{GroqAPIKey: "k", GroqModel: "test-model"})
	c.endpoint = url
	return c
}

func TestGroqClient(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "test-model", body["model"])
			w.Write([]byte(`{"choices":[{"message":{"content":"Turkey Wrap"}}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`))
		}))
		defer srv.Close()

		resp, err := newTestGroq(srv.URL).GenerateContent(context.Background(), "replace lunch")
		require.NoError(t, err)
		assert.Equal(t, "Turkey Wrap", resp.Content)
		assert.Equal(t, Usage{Model: "test-model", PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15}, resp.Usage)
	})

	t.Run("Non2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`rate limited`))
		}))
		defer srv.Close()

		_, err := newTestGroq(srv.URL).GenerateContent(context.Background(), "p")
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("ErrorPayload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
		}))
		defer srv.Close()

		_, err := newTestGroq(srv.URL).GenerateContent(context.Background(), "p")
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorContains(t, err, "model overloaded")
	})

	t.Run("DeadlineThroughGenerate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		_, err := Generate(context.Background(), newTestGroq(srv.URL), "p", 20*time.Millisecond)
		assert.True(t, IsTimeout(err))
		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "groq", te.Provider)
	})
}
