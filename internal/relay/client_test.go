package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/stream"
)

type capturedRequest struct {
	path string
	body models.ChatRequest
}

func newTestServer(t *testing.T, captured *capturedRequest, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_ValidatesBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)

	c, err := NewClient("http://example.com/")
	require.NoError(t, err)
	require.Equal(t, "http://example.com", c.baseURL)
}

func TestSend_HappyPath(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, &got, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Точность 1-3 мм."}`))
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	history := []models.Turn{
		{Role: models.RoleUser, Text: "Привет"},
		{Role: models.RoleModel, Text: "Здравствуйте"},
	}
	text, err := c.Send(context.Background(), "Какая точность?", history)
	require.NoError(t, err)
	require.Equal(t, "Точность 1-3 мм.", text)

	require.Equal(t, "/api/chat", got.path)
	require.Equal(t, "Какая точность?", got.body.Message)
	require.Equal(t, models.ToContents(history), got.body.History)
}

func TestSend_NonSuccessStatus(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, &got, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to reach Gemini"}`))
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "hi", nil)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.HTTPStatusCode())
	require.Contains(t, statusErr.Body, "Failed to reach Gemini")
}

func TestSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)
	_, err = c.Send(context.Background(), "hi", nil)
	require.Error(t, err)
}

func TestStream_YieldsFragmentsInOrder(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, &got, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, f := range []string{"Hel", "lo", ", мир"} {
			_, _ = fmt.Fprintf(w, "{\"text\":%q}\n", f)
			w.(http.Flusher).Flush()
		}
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	fs, err := c.Stream(context.Background(), "hi", nil)
	require.NoError(t, err)
	defer fs.Close()

	var fragments []string
	for {
		f, err := fs.Next()
		if err == stream.Done {
			break
		}
		require.NoError(t, err)
		fragments = append(fragments, f)
	}
	require.Equal(t, []string{"Hel", "lo", ", мир"}, fragments)
	require.Equal(t, "/api/chat/stream", got.path)

	_, err = fs.Next()
	require.ErrorIs(t, err, stream.Done)
}

func TestStream_ErrorLineEndsStream(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, &got, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{\"text\":\"Hel\"}\n{\"error\":\"Failed to reach Gemini\"}\n"))
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	text, err := stream.Collect(mustStream(t, c))
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	require.Equal(t, "Failed to reach Gemini", streamErr.Message)
	require.Equal(t, "Hel", text)
}

func TestStream_MalformedLine(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, &got, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not-json\n"))
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = stream.Collect(mustStream(t, c))
	require.Error(t, err)
	require.NotErrorIs(t, err, stream.Done)
}

func TestStream_NonSuccessStatus(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, &got, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Stream(context.Background(), "hi", nil)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestAtomic_WrapsSendAsSingleFragment(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, &got, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":"whole reply"}`))
	})
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	fs, err := Atomic{Client: c}.Stream(context.Background(), "hi", nil)
	require.NoError(t, err)
	text, err := stream.Collect(fs)
	require.NoError(t, err)
	require.Equal(t, "whole reply", text)
	require.Equal(t, "/api/chat", got.path)
}

func mustStream(t *testing.T, c *Client) stream.Fragments {
	t.Helper()
	fs, err := c.Stream(context.Background(), "hi", nil)
	require.NoError(t, err)
	return fs
}
