package relay

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/stream"
)

const maxLineBytes = 1 << 20

// StreamError is an error line sent by the server after the stream started.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "relay: stream failed: " + e.Message
}

// lineStream reads newline-delimited StreamChunk objects.
type lineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	err     error
}

func newLineStream(body io.ReadCloser) *lineStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &lineStream{body: body, scanner: sc}
}

func (s *lineStream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var chunk models.StreamChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return "", s.fail(errors.Wrap(err, "relay: decode stream line"))
		}
		if chunk.Error != "" {
			return "", s.fail(&StreamError{Message: chunk.Error})
		}
		return chunk.Text, nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", s.fail(errors.Wrap(err, "relay: read stream"))
	}
	return "", s.fail(stream.Done)
}

func (s *lineStream) fail(err error) error {
	s.err = err
	_ = s.body.Close()
	return err
}

func (s *lineStream) Close() error {
	if s.err == nil {
		s.err = stream.Done
	}
	return s.body.Close()
}
