package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/stream"
)

const DefaultGeminiModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("gemini: response has no text")

type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

// NewGeminiService builds a client for modelName with the site persona as
// system instruction. concurrentReqs bounds in-flight provider calls.
func NewGeminiService(ctx context.Context, apiKey, modelName string, concurrentReqs int) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &NotConfiguredError{Setting: "GEMINI_API_KEY"}
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = genai.NewUserContent(genai.Text(SystemInstruction))
	model.SetTemperature(0.4)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Minute):
		return errors.New("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Reply sends message after history and waits for the complete answer.
func (s *GeminiService) Reply(ctx context.Context, history []models.Content, message string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	cs := s.model.StartChat()
	cs.History = buildHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", errors.Wrap(err, "Gemini API error")
	}
	logCandidates(resp)

	text := extractText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// ReplyStream sends message after history and returns the answer as it is
// generated. The rate slot is held until the stream is exhausted or closed.
func (s *GeminiService) ReplyStream(ctx context.Context, history []models.Content, message string) (stream.Fragments, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}

	cs := s.model.StartChat()
	cs.History = buildHistory(history)

	return &geminiStream{
		iter:    cs.SendMessageStream(ctx, genai.Text(message)),
		release: s.releaseRate,
	}, nil
}

type geminiStream struct {
	iter    *genai.GenerateContentResponseIterator
	release func()
	err     error
}

func (g *geminiStream) Next() (string, error) {
	for g.err == nil {
		resp, err := g.iter.Next()
		if err == iterator.Done {
			g.finish(stream.Done)
			break
		}
		if err != nil {
			g.finish(errors.Wrap(err, "Gemini stream error"))
			break
		}
		if text := extractText(resp); text != "" {
			return text, nil
		}
	}
	return "", g.err
}

func (g *geminiStream) Close() error {
	g.finish(stream.Done)
	return nil
}

func (g *geminiStream) finish(err error) {
	if g.err != nil {
		return
	}
	g.err = err
	g.release()
}

// buildHistory maps wire turns onto provider turns, keeping every turn in
// order with its role.
func buildHistory(history []models.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, h := range history {
		parts := make([]genai.Part, 0, len(h.Parts))
		for _, p := range h.Parts {
			parts = append(parts, genai.Text(p.Text))
		}
		out = append(out, &genai.Content{Role: string(h.Role), Parts: parts})
	}
	return out
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

func logCandidates(resp *genai.GenerateContentResponse) {
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Warn().
				Str("component", "gemini").
				Int("candidate", i).
				Str("finish_reason", cand.FinishReason.String()).
				Msg("Gemini stopped early")
		}
	}
}
