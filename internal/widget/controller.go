// Package widget drives a chat session: it owns the transcript, gates
// submissions while a reply is in flight and folds streamed fragments into
// the trailing model turn.
package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/stream"
	"github.com/dzeya/mensor-construction-4/internal/transcript"
)

const (
	// Apology replaces a reply that could not be obtained.
	Apology = "Apologies, I encountered a structural error in my processing. Please try again."

	// Greeting is the model turn a fresh widget opens with.
	Greeting = "Hello. I am the Mensor AI Architect. How can I assist with your construction inquiry today?"

	defaultHistoryLimit = 20
)

var (
	ErrEmptyInput    = errors.New("widget: input is empty")
	ErrReplyInFlight = errors.New("widget: a reply is already in flight")
)

type State int

const (
	StateIdle State = iota
	StateAwaitingReply
)

func (s State) String() string {
	if s == StateAwaitingReply {
		return "awaiting-reply"
	}
	return "idle"
}

// Relay starts a reply for message given the prior turns.
type Relay interface {
	Stream(ctx context.Context, message string, history []models.Turn) (stream.Fragments, error)
}

// Snapshot is what observers render after every change.
type Snapshot struct {
	Turns []models.Turn
	State State
}

type Controller struct {
	relay        Relay
	store        *transcript.Store
	historyLimit int
	timeout      time.Duration
	observers    []func(Snapshot)

	mu     sync.Mutex
	state  State
	input  string
	cancel context.CancelFunc
}

type Option func(*Controller)

// WithGreeting seeds the transcript with an opening model turn.
func WithGreeting(text string) Option {
	return func(c *Controller) {
		c.store.Append(models.Turn{Role: models.RoleModel, Text: text})
	}
}

// WithHistoryLimit caps how many prior turns are forwarded per request.
// Zero or less forwards the whole conversation.
func WithHistoryLimit(n int) Option {
	return func(c *Controller) {
		c.historyLimit = n
	}
}

// WithTimeout bounds each relay call.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithObserver registers fn to be called with a snapshot after every change.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

func New(relay Relay, opts ...Option) (*Controller, error) {
	if relay == nil {
		return nil, errors.New("widget: relay must not be nil")
	}
	c := &Controller{
		relay:        relay,
		store:        transcript.New(),
		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Submit sends the current input and blocks until the reply is fully
// consumed or fails. Empty input and submissions while a reply is in flight
// are rejected without touching the transcript. A failed reply leaves an
// apology turn in the transcript and returns the underlying error.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	message := c.input
	if strings.TrimSpace(message) == "" {
		c.mu.Unlock()
		return ErrEmptyInput
	}
	if c.state == StateAwaitingReply {
		c.mu.Unlock()
		return ErrReplyInFlight
	}

	history := models.LastTurns(c.store.Snapshot(), c.historyLimit)
	c.store.Append(models.Turn{Role: models.RoleUser, Text: message})
	c.input = ""
	c.state = StateAwaitingReply
	c.store.Append(models.Turn{Role: models.RoleModel})

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	c.notify()
	err := c.consume(ctx, message, history)

	c.mu.Lock()
	if err != nil {
		c.appendApologyLocked()
	}
	c.state = StateIdle
	c.cancel = nil
	c.mu.Unlock()
	c.notify()

	return err
}

// Cancel aborts the reply in flight, if any. The aborted reply is treated as
// a failure.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) consume(ctx context.Context, message string, history []models.Turn) error {
	fs, err := c.relay.Stream(ctx, message, history)
	if err != nil {
		return err
	}
	defer fs.Close()

	for {
		fragment, err := fs.Next()
		if errors.Is(err, stream.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if fragment == "" {
			continue
		}
		if err := c.store.ExtendLast(fragment); err != nil {
			return err
		}
		c.notify()
	}
}

// appendApologyLocked fills an untouched placeholder with the apology, or
// appends a separate apology turn when partial text already arrived.
func (c *Controller) appendApologyLocked() {
	if last, ok := c.store.Last(); ok && last.Role == models.RoleModel && last.Text == "" {
		_ = c.store.ExtendLast(Apology)
		return
	}
	c.store.Append(models.Turn{Role: models.RoleModel, Text: Apology})
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{Turns: c.store.Snapshot(), State: c.state}
}

func (c *Controller) notify() {
	if len(c.observers) == 0 {
		return
	}
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	for _, fn := range c.observers {
		fn(snap)
	}
}
