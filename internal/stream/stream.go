// Package stream defines the finite fragment producer shared by the Gemini
// service, the relay client and the widget controller.
package stream

import (
	"strings"

	"google.golang.org/api/iterator"
)

// Done is returned by Next once a stream is exhausted. It is the same
// sentinel the Gemini SDK iterators use.
var Done = iterator.Done

// Fragments is a finite, non-restartable sequence of text fragments.
// Next returns Done after the last fragment; Close releases the underlying
// transport and may be called at any point.
type Fragments interface {
	Next() (string, error)
	Close() error
}

type sliceStream struct {
	fragments []string
	pos       int
}

// FromSlice returns a stream yielding the given fragments in order.
func FromSlice(fragments ...string) Fragments {
	return &sliceStream{fragments: fragments}
}

func (s *sliceStream) Next() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", Done
	}
	f := s.fragments[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceStream) Close() error {
	s.pos = len(s.fragments)
	return nil
}

// Collect drains f and returns the concatenated text. The stream is closed
// in every case; on error the text received so far is returned with it.
func Collect(f Fragments) (string, error) {
	defer f.Close()

	var b strings.Builder
	for {
		frag, err := f.Next()
		if err == Done {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
}
