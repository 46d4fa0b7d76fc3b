package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"sync"
)

var _ contract.EventSink = (*Sink)(nil)

// Sink is the outbound queue of one connection, drained by its writer.
// Consume never waits for the network: a full buffer or a closed
// connection is reported to the caller right away.
type Sink struct {
	events    chan event.Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.Event, bufferSize), done: make(chan struct{})}
}

func (s *Sink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrConnectionFull
	}
}

// Events is read by the connection writer only.
func (s *Sink) Events() <-chan event.Event { return s.events }

// Done is closed once the connection is gone.
func (s *Sink) Done() <-chan struct{} { return s.done }

func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
