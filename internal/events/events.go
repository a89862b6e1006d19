// Package events subscribes to the backend's document and upload notifications over WebSocket.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/ledgerdesk/internal/api"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Type names a notification.
type Type string

const (
	TypeDocumentStatus Type = "document.status"
	TypeUploadProgress Type = "upload.progress"
)

// Event is one notification. DocumentID and Status are set for document.status;
// RequestID and Progress (0-100) for upload.progress.
type Event struct {
	Type       Type                   `json:"type"`
	CompanyID  string                 `json:"companyId"`
	DocumentID string                 `json:"documentId,omitempty"`
	RequestID  string                 `json:"requestId,omitempty"`
	Status     domain.StatementStatus `json:"status,omitempty"`
	Progress   int                    `json:"progress,omitempty"`
	Message    string                 `json:"message,omitempty"`
}

// URLFor derives the events endpoint from the REST base URL.
func URLFor(base *url.URL) *url.URL {
	u := *base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + api.PathEvents
	u.RawQuery = ""
	return &u
}

// DefaultHandshakeTimeout bounds opening a stream, including the TCP connect.
const DefaultHandshakeTimeout = 5 * time.Second

// Subscriber opens event streams.
type Subscriber struct {
	url    *url.URL
	token  string
	dialer *websocket.Dialer
	log    zerolog.Logger
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithHandshakeTimeout replaces DefaultHandshakeTimeout.
func WithHandshakeTimeout(d time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if d > 0 {
			s.dialer.HandshakeTimeout = d
		}
	}
}

// NewSubscriber creates a Subscriber for the endpoint at u, authenticating with token when set.
func NewSubscriber(u *url.URL, token string, log zerolog.Logger, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		url:   u,
		token: token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe opens a stream of companyID's events. The stream ends when ctx is done,
// when Close is called, or when the connection drops.
func (s *Subscriber) Subscribe(ctx context.Context, companyID string) (*Stream, error) {
	if err := api.RequireCompany(companyID); err != nil {
		return nil, err
	}
	u := *s.url
	u.RawQuery = url.Values{"companyId": {companyID}}.Encode()

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &api.Error{Kind: api.KindTransport, Op: "GET " + api.PathEvents, Status: status, Err: err}
	}

	st := &Stream{
		conn:   conn,
		events: make(chan Event, 16),
		closed: make(chan struct{}),
		log:    s.log.With().Str("company_id", companyID).Logger(),
	}
	go st.watch(ctx)
	go st.read(ctx)
	st.log.Debug().Msg("Event stream opened")
	return st, nil
}

// Stream is an open subscription.
type Stream struct {
	conn   *websocket.Conn
	events chan Event
	log    zerolog.Logger

	closeOnce sync.Once
	closed    chan struct{}

	mu  sync.Mutex
	err error
}

// Events yields decoded events. The channel is closed when the stream ends.
func (s *Stream) Events() <-chan Event { return s.events }

// Err returns why the stream ended, or nil when it was closed or its context was done.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the stream.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		err = s.conn.Close()
	})
	return err
}

func (s *Stream) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.Close()
	case <-s.closed:
	}
}

func (s *Stream) read(ctx context.Context) {
	defer close(s.events)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.isClosed() && ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				s.mu.Lock()
				s.err = fmt.Errorf("read: %w", err)
				s.mu.Unlock()
				s.log.Warn().Err(err).Msg("Event stream dropped")
			}
			return
		}

		ev, err := decode(data)
		if err != nil {
			s.log.Warn().Err(err).Msg("Skipping event")
			continue
		}

		select {
		case s.events <- ev:
		case <-s.closed:
			return
		}
	}
}

func (s *Stream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

var errUnknownType = errors.New("unknown event type")

func decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode: %w", err)
	}
	switch ev.Type {
	case TypeDocumentStatus, TypeUploadProgress:
	default:
		return Event{}, fmt.Errorf("decode %q: %w", ev.Type, errUnknownType)
	}
	if ev.Type == TypeDocumentStatus && (ev.DocumentID == "" || ev.Status == "") {
		return Event{}, fmt.Errorf("decode %q: missing document id or status", ev.Type)
	}
	if ev.Progress < 0 || ev.Progress > 100 {
		return Event{}, fmt.Errorf("decode: progress %d out of range", ev.Progress)
	}
	return ev, nil
}
