package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/services"
	"github.com/dzeya/mensor-construction-4/internal/stream"
)

const maxChatBodyBytes = 1 << 20

// ChatProvider produces model replies for a conversation.
type ChatProvider interface {
	Reply(ctx context.Context, history []models.Content, message string) (string, error)
	ReplyStream(ctx context.Context, history []models.Content, message string) (stream.Fragments, error)
}

type ChatHandler struct {
	provider     ChatProvider
	historyLimit int
	timeout      time.Duration
}

// NewChatHandler wires the chat endpoints. A nil provider means the
// credential is missing; every request then fails with a configuration error.
func NewChatHandler(provider ChatProvider, historyLimit int, timeout time.Duration) *ChatHandler {
	return &ChatHandler{
		provider:     provider,
		historyLimit: historyLimit,
		timeout:      timeout,
	}
}

// Chat answers POST /api/chat with the complete reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, ok := h.accept(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.providerContext(r.Context())
	defer cancel()

	text, err := h.provider.Reply(ctx, req.History, req.Message)
	if err != nil {
		logProviderError(r, err)
		writeJSON(w, http.StatusInternalServerError, errorResp(models.MsgProviderFailed))
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Text: text})
}

// Stream answers POST /api/chat/stream with newline-delimited JSON chunks,
// one per provider fragment. The first fragment is fetched before the status
// is written, so a provider that fails up front gets the plain 500 reply. A
// failure after that is reported as a final error line.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.accept(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.providerContext(r.Context())
	defer cancel()

	fragments, err := h.provider.ReplyStream(ctx, req.History, req.Message)
	if err != nil {
		logProviderError(r, err)
		writeJSON(w, http.StatusInternalServerError, errorResp(models.MsgProviderFailed))
		return
	}
	defer fragments.Close()

	fragment, err := fragments.Next()
	if err != nil && !errors.Is(err, stream.Done) {
		logProviderError(r, err)
		writeJSON(w, http.StatusInternalServerError, errorResp(models.MsgProviderFailed))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	for {
		if errors.Is(err, stream.Done) {
			rc.Flush()
			return
		}
		if err != nil {
			logProviderError(r, err)
			enc.Encode(models.StreamChunk{Error: models.MsgProviderFailed})
			rc.Flush()
			return
		}
		if err := enc.Encode(models.StreamChunk{Text: fragment}); err != nil {
			// Client went away.
			return
		}
		rc.Flush()
		fragment, err = fragments.Next()
	}
}

// accept runs the checks shared by both chat endpoints in order: method,
// credential, then message. It writes the error reply itself when a check
// fails.
func (h *ChatHandler) accept(w http.ResponseWriter, r *http.Request) (models.ChatRequest, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResp(models.MsgMethodNotAllowed))
		return models.ChatRequest{}, false
	}

	if h.provider == nil {
		err := &services.NotConfiguredError{Setting: "GEMINI_API_KEY"}
		log.Error().Err(err).Str("component", "chat").Msg("chat request rejected")
		writeJSON(w, http.StatusInternalServerError, errorResp(err.Error()))
		return models.ChatRequest{}, false
	}

	var req models.ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		req = models.ChatRequest{}
	}
	if !req.HasMessage() {
		writeJSON(w, http.StatusBadRequest, errorResp(models.MsgMessageRequired))
		return models.ChatRequest{}, false
	}

	req.History = models.LastTurns(req.History, h.historyLimit)
	return req, true
}

func (h *ChatHandler) providerContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(parent, h.timeout)
	}
	return context.WithCancel(parent)
}

func logProviderError(r *http.Request, err error) {
	log.Error().
		Err(err).
		Str("component", "chat").
		Str("path", r.URL.Path).
		Str("request_id", r.Header.Get("X-Request-ID")).
		Msg("Gemini call failed")
}
