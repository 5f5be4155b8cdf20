// Package chat owns the conversation transcript: the messages exchanged with
// the completion service, their persistence after every turn and their
// replay when a session is resumed.
package chat

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/comigor/gptchat/internal/logger"
)

// DefaultDelay is the pause before every completion request.
const DefaultDelay = 800 * time.Millisecond

// Store persists transcripts under a key.
type Store interface {
	// NewKey derives a fresh key for a session started at now.
	NewKey(now time.Time) string
	// Load returns the transcript stored at key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]Message, error)
	// Save replaces whatever is stored at key with msgs. Readers never see a
	// partially written transcript.
	Save(ctx context.Context, key string, msgs []Message) error
}

// Completer produces the next assistant message for a transcript.
type Completer interface {
	Complete(ctx context.Context, history []Message) (Message, error)
}

// Conversation is an ordered transcript bound to a storage key. It is not
// safe for concurrent use.
type Conversation struct {
	transcript []Message
	path       string
	store      Store
	completer  Completer
	turn       *stateless.StateMachine
}

// New starts an empty conversation under a freshly derived key. Nothing is
// stored until the first successful turn.
func New(store Store, completer Completer) *Conversation {
	path := store.NewKey(time.Now())
	logger.L.Debug("new conversation", "path", path)
	return &Conversation{
		path:      path,
		store:     store,
		completer: completer,
		turn:      newTurnMachine(path),
	}
}

// Load resumes the conversation stored at path.
func Load(ctx context.Context, store Store, completer Completer, path string) (*Conversation, error) {
	msgs, err := store.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", path, err)
	}
	logger.L.Debug("loaded conversation", "path", path, "messages", len(msgs))
	return &Conversation{
		transcript: msgs,
		path:       path,
		store:      store,
		completer:  completer,
		turn:       newTurnMachine(path),
	}, nil
}

// Open resumes path when it is set and starts a new conversation otherwise.
func Open(ctx context.Context, store Store, completer Completer, path string) (*Conversation, error) {
	if path == "" {
		return New(store, completer), nil
	}
	return Load(ctx, store, completer, path)
}

// Path returns the storage key of the conversation.
func (c *Conversation) Path() string { return c.path }

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message { return slices.Clone(c.transcript) }

// AskQuestion waits for delay, sends the transcript plus prompt to the
// completion service and records the exchange. On any error the transcript,
// in memory and in storage, is left as it was before the call.
func (c *Conversation) AskQuestion(ctx context.Context, prompt string, delay time.Duration) (Message, error) {
	if c.turn.MustState() != stateIdle {
		return Message{}, ErrTurnInProgress
	}
	if err := c.turn.FireCtx(ctx, triggerAsk); err != nil {
		return Message{}, err
	}

	reply, err := c.roundTrip(ctx, prompt, delay)
	if err != nil {
		if ferr := c.turn.FireCtx(ctx, triggerFailed); ferr != nil {
			logger.L.Warn("turn state reset failed", "error", ferr)
		}
		logger.L.Debug("turn failed", "path", c.path, "error", err)
		return Message{}, err
	}
	return reply, nil
}

func (c *Conversation) roundTrip(ctx context.Context, prompt string, delay time.Duration) (Message, error) {
	if err := pace(ctx, delay); err != nil {
		return Message{}, err
	}
	if err := c.turn.FireCtx(ctx, triggerPaced); err != nil {
		return Message{}, err
	}

	question := NewMessage(RoleUser, prompt)
	history := append(slices.Clone(c.transcript), question)

	reply, err := c.completer.Complete(ctx, history)
	if err != nil {
		return Message{}, &RemoteCallError{Err: err}
	}
	if reply.Role() != RoleAssistant {
		return Message{}, &RemoteCallError{Err: fmt.Errorf("%w: %s", ErrUnexpectedRole, reply.Role())}
	}
	if err := c.turn.FireCtx(ctx, triggerReplied); err != nil {
		return Message{}, err
	}

	next := append(history, reply)
	if err := c.persist(ctx, next); err != nil {
		return Message{}, err
	}
	c.transcript = next
	if err := c.turn.FireCtx(ctx, triggerPersisted); err != nil {
		// the pair is already stored; only the turn state lags behind
		logger.L.Warn("turn state advance failed", "path", c.path, "error", err)
	}

	logger.L.Info("turn completed", "path", c.path, "messages", len(c.transcript))
	return reply, nil
}

// persist fully rewrites the stored transcript with msgs.
func (c *Conversation) persist(ctx context.Context, msgs []Message) error {
	if err := c.store.Save(ctx, c.path, msgs); err != nil {
		return fmt.Errorf("persist conversation %s: %w", c.path, err)
	}
	return nil
}

func pace(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
