// Package relay is the client side of the site chat: it posts a message plus
// prior turns to the chat endpoints and hands the reply back either whole or
// as a stream of fragments.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/stream"
)

const (
	chatPath       = "/api/chat"
	streamPath     = "/api/chat/stream"
	maxReplyBytes  = 1 << 20
	maxErrorBytes  = 4096
	defaultTimeout = 2 * time.Minute
)

// HTTPStatusError captures non-2xx replies from the chat endpoints.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("relay: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the chat endpoints of one site.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Streaming callers should not set
// a Timeout on it; bound calls through the context instead.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("relay: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c, nil
}

// Send posts the message and returns the complete reply text.
func (c *Client) Send(ctx context.Context, message string, history []models.Turn) (string, error) {
	url := c.baseURL + chatPath
	res, err := c.post(ctx, url, message, history)
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Body.Close() }()

	var payload models.ChatResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxReplyBytes)).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "relay: decode reply")
	}
	return payload.Text, nil
}

// Stream posts the message to the streaming endpoint and returns the reply
// as fragments in arrival order. The caller must Close the stream.
func (c *Client) Stream(ctx context.Context, message string, history []models.Turn) (stream.Fragments, error) {
	res, err := c.post(ctx, c.baseURL+streamPath, message, history)
	if err != nil {
		return nil, err
	}
	return newLineStream(res.Body), nil
}

func (c *Client) post(ctx context.Context, url, message string, history []models.Turn) (*http.Response, error) {
	body, err := json.Marshal(models.ChatRequest{
		Message: message,
		History: models.ToContents(history),
	})
	if err != nil {
		return nil, errors.Wrap(err, "relay: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "relay: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "relay: request failed")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer func() { _ = res.Body.Close() }()
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBytes))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}
	return res, nil
}

// Atomic adapts Send to the fragment interface, for callers that want the
// non-streaming variant behind the same contract.
type Atomic struct {
	Client *Client
}

func (a Atomic) Stream(ctx context.Context, message string, history []models.Turn) (stream.Fragments, error) {
	text, err := a.Client.Send(ctx, message, history)
	if err != nil {
		return nil, err
	}
	return stream.FromSlice(text), nil
}
