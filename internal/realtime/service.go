package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"market-admin/internal/cache"
	"market-admin/internal/metrics"
)

// ChangeSource delivers row changes; *Listener is the Postgres one.
type ChangeSource interface {
	Listen(ctx context.Context, ready func(), handle func(*ChangeEvent)) error
}

type Status struct {
	Status    string `json:"status"`
	Listening bool   `json:"listening"`
	Clients   int    `json:"clients"`
}

// Service bridges database change notifications to the query cache and to
// websocket subscribers. It is built once in main and passed to the router.
type Service struct {
	source ChangeSource
	hub    *Hub
	logger *logrus.Logger

	mu           sync.Mutex
	status       string
	hubCancel    context.CancelFunc
	listenCancel context.CancelFunc
	listenDone   chan struct{}
}

func NewService(source ChangeSource, hub *Hub, logger *logrus.Logger) *Service {
	return &Service{source: source, hub: hub, logger: logger, status: StatusClosed}
}

// Start launches the hub and the change listener. Calling Start again
// after a listener failure reconnects; calling it while subscribed is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hubCancel == nil {
		hubCtx, cancel := context.WithCancel(ctx)
		s.hubCancel = cancel
		go s.hub.Run(hubCtx)
	}
	if s.status == StatusConnecting || s.status == StatusSubscribed {
		return
	}

	listenCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.listenCancel = cancel
	s.listenDone = done
	s.status = StatusConnecting

	go func() {
		defer close(done)
		err := s.source.Listen(listenCtx, func() {
			s.setStatus(StatusSubscribed)
			s.logger.WithField("channel", Channel).Info("Realtime subscription established")
		}, s.Handle)

		if err != nil {
			s.logger.WithError(err).Error("Realtime subscription failed")
			s.setStatus(StatusError)
			return
		}
		s.setStatus(StatusClosed)
	}()
}

// Stop unsubscribes and disconnects every websocket client.
func (s *Service) Stop() {
	s.mu.Lock()
	listenCancel, done, hubCancel := s.listenCancel, s.listenDone, s.hubCancel
	s.listenCancel, s.listenDone, s.hubCancel = nil, nil, nil
	s.mu.Unlock()

	if listenCancel != nil {
		listenCancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.logger.Warn("Realtime listener did not stop in time")
		}
	}
	if hubCancel != nil {
		hubCancel()
	}

	s.mu.Lock()
	s.status = StatusClosed
	s.mu.Unlock()
}

func (s *Service) Status() Status {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()
	return Status{
		Status:    status,
		Listening: status == StatusSubscribed,
		Clients:   s.hub.ClientCount(),
	}
}

// Handle applies one change: cached queries over the table are dropped
// and subscribers are told to refetch.
func (s *Service) Handle(ev *ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cache.InvalidateTable(ctx, ev.Table)
	metrics.RealtimeEventsTotal.WithLabelValues(ev.Table, ev.Type).Inc()

	s.logger.WithFields(logrus.Fields{
		"table":     ev.Table,
		"type":      ev.Type,
		"record_id": ev.RecordID,
	}).Debug("Realtime change")
	s.hub.Broadcast(Message{Type: MessageChange, Event: ev})
}

// ServeWS attaches an authenticated subscriber. The first message carries
// the current subscription state.
func (s *Service) ServeWS(w http.ResponseWriter, r *http.Request) {
	greeting := &Message{Type: MessageStatus, Status: s.Status().Status}
	s.hub.Serve(r.Context(), w, r, greeting)
}

func (s *Service) setStatus(status string) {
	s.mu.Lock()
	prev := s.status
	s.status = status
	s.mu.Unlock()
	if prev != status {
		s.hub.Broadcast(Message{Type: MessageStatus, Status: status})
	}
}
