package xalute

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelPublisherClosed is returned when a channel publisher is used after close.
var ErrChannelPublisherClosed = errors.New("xalute: channel publisher closed")

// OutcomeHandler receives the outcomes of one persisted batch.
type OutcomeHandler func([]Outcome) error

// NewCallbackPublisher adapts a function into an OutcomePublisher.
func NewCallbackPublisher(name string, fn OutcomeHandler) OutcomePublisher {
	if name == "" {
		name = "callback"
	}
	return &callbackPublisher{name: name, fn: fn}
}

// NewChannelPublisher exposes batches via a channel; it returns the publisher,
// the read-only channel, and a close function to call during shutdown.
func NewChannelPublisher(name string, buffer int) (OutcomePublisher, <-chan []Outcome, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []Outcome, buffer)
	p := &channelPublisher{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return p, ch, func() { p.close() }
}

type callbackPublisher struct {
	name string
	fn   OutcomeHandler
}

func (p *callbackPublisher) Publish(_ context.Context, outcomes []Outcome) error {
	if p.fn == nil {
		return fmt.Errorf("callback publisher %q: nil handler", p.name)
	}
	if len(outcomes) == 0 {
		return nil
	}
	return p.fn(cloneOutcomes(outcomes))
}

func (p *callbackPublisher) Name() string { return p.name }

type channelPublisher struct {
	name   string
	ch     chan []Outcome
	closed chan struct{}
	once   sync.Once
	mu     sync.RWMutex
}

func (p *channelPublisher) Publish(ctx context.Context, outcomes []Outcome) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	select {
	case <-p.closed:
		return ErrChannelPublisherClosed
	default:
	}

	if len(outcomes) == 0 {
		return nil
	}

	select {
	case <-p.closed:
		return ErrChannelPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.ch <- cloneOutcomes(outcomes):
		return nil
	}
}

func (p *channelPublisher) Name() string { return p.name }

// close waits for in-flight sends so the channel is never closed under a writer.
func (p *channelPublisher) close() {
	p.once.Do(func() {
		close(p.closed)
		p.mu.Lock()
		close(p.ch)
		p.mu.Unlock()
	})
}

type multiPublisher []OutcomePublisher

func (m multiPublisher) Publish(ctx context.Context, outcomes []Outcome) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, outcomes); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m multiPublisher) Name() string {
	if len(m) == 1 {
		return m[0].Name()
	}
	return fmt.Sprintf("multi(%d)", len(m))
}

func cloneOutcomes(in []Outcome) []Outcome {
	out := make([]Outcome, len(in))
	copy(out, in)
	return out
}
