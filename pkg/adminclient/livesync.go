package adminclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	LabelLive    = "Live Sync"
	LabelOffline = "Offline"
)

// LiveSync subscribes to table changes and drops the matching entries
// from a QueryCache. There is no automatic reconnect: after a failure,
// call Start again.
type LiveSync struct {
	client *Client
	cache  *QueryCache
	logger *logrus.Logger
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	status  string
	done    chan struct{}
	onEvent func(*ChangeEvent)
}

func NewLiveSync(client *Client, cache *QueryCache) *LiveSync {
	return &LiveSync{
		client: client,
		cache:  cache,
		logger: client.logger,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		status: ChannelClosed,
	}
}

// OnEvent registers fn to be called for every change after the cache
// has been invalidated.
func (s *LiveSync) OnEvent(fn func(*ChangeEvent)) {
	s.mu.Lock()
	s.onEvent = fn
	s.mu.Unlock()
}

// Start opens the subscription. It is a no-op while connected.
func (s *LiveSync) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}

	endpoint, err := s.endpoint()
	if err != nil {
		return err
	}
	header := http.Header{}
	if token := s.client.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	s.status = ChannelConnecting
	conn, resp, err := s.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		s.status = ChannelError
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		s.logger.WithError(err).Warn("Live sync subscription failed")
		return err
	}

	s.conn = conn
	s.done = make(chan struct{})
	go s.readLoop(conn, s.done)
	return nil
}

// Stop unsubscribes and waits for the reader to exit.
func (s *LiveSync) Stop() {
	s.mu.Lock()
	conn, done := s.conn, s.done
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	conn.Close()
	<-done

	s.mu.Lock()
	s.status = ChannelClosed
	s.mu.Unlock()
}

// Status is the indicator label: "Live Sync" while subscribed, otherwise "Offline".
func (s *LiveSync) Status() string {
	if s.Subscribed() {
		return LabelLive
	}
	return LabelOffline
}

func (s *LiveSync) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && s.status == ChannelSubscribed
}

// ChannelStatus is the raw subscription state reported by the server.
func (s *LiveSync) ChannelStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *LiveSync) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			s.mu.Lock()
			stopped := s.conn != conn
			if !stopped {
				s.conn = nil
				s.status = ChannelError
			}
			s.mu.Unlock()
			if !stopped && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WithError(err).Warn("Live sync connection lost")
			}
			conn.Close()
			return
		}

		switch msg.Type {
		case messageStatus:
			s.mu.Lock()
			s.status = msg.Status
			s.mu.Unlock()
			s.logger.WithField("status", msg.Status).Debug("Live sync status")
		case messageChange:
			if msg.Event == nil {
				continue
			}
			if s.cache != nil {
				s.cache.InvalidateTable(msg.Event.Table)
			}
			s.mu.Lock()
			fn := s.onEvent
			s.mu.Unlock()
			if fn != nil {
				fn(msg.Event)
			}
		}
	}
}

func (s *LiveSync) endpoint() (string, error) {
	u, err := url.Parse(s.client.BaseURL())
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("base url must be http or https")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/realtime"
	return u.String(), nil
}
