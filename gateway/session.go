package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/protocol"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Gateway builds sessions sharing the same services.
type Gateway struct {
	identities  services.IIdentityService
	registry    contract.IRegistry
	delivery    services.IDeliveryService
	bufferSize  int
	sinkTimeout time.Duration
	log         *slog.Logger
}

func NewGateway(
	identities services.IIdentityService,
	registry contract.IRegistry,
	delivery services.IDeliveryService,
	bufferSize int,
	sinkTimeout time.Duration,
	log *slog.Logger) *Gateway {
	return &Gateway{
		identities:  identities,
		registry:    registry,
		delivery:    delivery,
		bufferSize:  bufferSize,
		sinkTimeout: sinkTimeout,
		log:         log,
	}
}

func (g *Gateway) NewSession() *Session {
	return &Session{gateway: g, sink: NewSink(g.bufferSize), log: g.log}
}

// Session is the state of one connection. Handle must be called from a
// single goroutine so frames are processed in receipt order.
type Session struct {
	gateway  *Gateway
	sink     *Sink
	identity *domain.Identity
	log      *slog.Logger
}

func (s *Session) Sink() *Sink { return s.sink }

// Identity is nil until a connect succeeded.
func (s *Session) Identity() *domain.Identity { return s.identity }

// Handle decodes one frame and answers it. Every failure becomes an error
// envelope: the connection itself is never closed from here.
func (s *Session) Handle(ctx context.Context, raw []byte) {
	name, req, err := protocol.Decode(raw)
	if err != nil {
		s.reject(ctx, name, err)
		return
	}
	if _, connecting := req.(protocol.ConnectRequest); !connecting && s.identity == nil {
		s.reject(ctx, name, errors.ErrUnauthenticated)
		return
	}
	if err := s.dispatch(ctx, req); err != nil {
		if errors.KindOf(err) == errors.KindInternal {
			s.log.Error("Request failed", "event", name, "error", err)
		}
		s.reject(ctx, name, err)
	}
}

func (s *Session) dispatch(ctx context.Context, req protocol.Request) error {
	delivery := s.gateway.delivery
	switch r := req.(type) {
	case protocol.ConnectRequest:
		return s.connect(ctx, r)
	case protocol.SyncRequest:
		_, err := delivery.Sync(ctx, s.origin())
		return err
	case protocol.CreateMessageRequest:
		_, err := delivery.SendMessage(ctx, s.origin(), r.Command())
		return err
	case protocol.UpdateMessageRequest:
		_, err := delivery.UpdateMessage(ctx, s.origin(), r.Command())
		return err
	case protocol.DeleteMessageRequest:
		return delivery.DeleteMessage(ctx, s.origin(), r.MessageID)
	case protocol.MarkSeenRequest:
		_, err := delivery.MarkSeen(ctx, s.origin(), r.ChatID)
		return err
	case protocol.MarkDeliveredRequest:
		_, err := delivery.MarkDelivered(ctx, s.origin(), r.ChatID)
		return err
	default:
		return fmt.Errorf("unhandled request %T", req)
	}
}

// connect authenticates the session, takes over any previous connection of
// the account and syncs it.
func (s *Session) connect(ctx context.Context, r protocol.ConnectRequest) error {
	identity, err := s.gateway.identities.Authenticate(ctx, r.Authorization)
	if err != nil {
		return err
	}
	s.identity = &identity
	s.gateway.registry.Connect(identity.AccountID, s.sink)
	s.log.Info("Account connected", "account_id", identity.AccountID)

	s.send(ctx, event.Connected{AccountID: identity.AccountID})
	_, err = s.gateway.delivery.Sync(ctx, s.origin())
	return err
}

// Close unregisters the connection unless a newer one already replaced it.
func (s *Session) Close() {
	s.gateway.registry.Disconnect(s.sink)
	s.sink.Close()
	if s.identity != nil {
		s.log.Info("Account disconnected", "account_id", s.identity.AccountID)
	}
}

func (s *Session) origin() services.Origin {
	return services.Origin{Identity: *s.identity, Sink: s.sink}
}

func (s *Session) reject(ctx context.Context, name event.Name, err error) {
	s.send(ctx, event.Reject(name, err))
}

func (s *Session) send(ctx context.Context, e event.Event) {
	sinkCtx, cancel := context.WithTimeout(ctx, s.gateway.sinkTimeout)
	defer cancel()
	if err := s.sink.Consume(sinkCtx, e); err != nil {
		s.log.Debug("Event dropped", "event", e.Name(), "error", err)
	}
}
