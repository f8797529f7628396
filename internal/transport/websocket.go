// Package transport maintains the persistent WebSocket link to the remote
// inspector, reconnecting with backoff and feeding lifecycle events and
// inbound messages to a Receiver.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/spyglass/internal/logging"
	"github.com/soyeahso/spyglass/internal/protocol"
)

// Receiver consumes transport lifecycle events and inbound messages. The
// bridge client implements it.
type Receiver interface {
	OnConnected()
	OnDisconnected()
	OnMessage(raw json.RawMessage)
}

// Options configure the connection manager.
type Options struct {
	URL         string        // ws(s)://host:port/ws
	Token       string        // optional bearer token sent on dial
	App         string        // host application name, sent as a query param
	DeviceID    string        // stable device identifier, sent as a query param
	DialTimeout time.Duration // per-attempt dial timeout
	BackoffMin  time.Duration // first reconnect delay
	BackoffMax  time.Duration // reconnect delay ceiling
	OutboxSize  int           // buffered outbound messages
}

const (
	defaultDialTimeout = 10 * time.Second
	defaultBackoffMin  = time.Second
	defaultBackoffMax  = 30 * time.Second
	defaultOutboxSize  = 256
)

func (o *Options) applyDefaults() {
	if o.DialTimeout == 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.BackoffMin == 0 {
		o.BackoffMin = defaultBackoffMin
	}
	if o.BackoffMax == 0 {
		o.BackoffMax = defaultBackoffMax
	}
	if o.OutboxSize == 0 {
		o.OutboxSize = defaultOutboxSize
	}
}

// Manager owns the physical socket. SendMessage enqueues onto a buffered
// outbox drained by a write pump, so senders never block on the wire and
// never see an error; queued messages survive a reconnect.
type Manager struct {
	opts Options
	log  *logging.Logger

	outbox chan protocol.Message

	mu   sync.Mutex
	recv Receiver
	conn *websocket.Conn
}

// New creates a connection manager. SendMessage may be used right away;
// a Receiver must be bound before Run is called.
func New(opts Options, log *logging.Logger) *Manager {
	opts.applyDefaults()
	return &Manager{
		opts:   opts,
		log:    log.Sub("transport"),
		outbox: make(chan protocol.Message, opts.OutboxSize),
	}
}

// SetReceiver binds the consumer of lifecycle events and inbound messages.
// The bridge client is constructed with the manager as its sender, then
// bound here, which breaks the construction cycle between the two.
func (m *Manager) SetReceiver(recv Receiver) {
	m.mu.Lock()
	m.recv = recv
	m.mu.Unlock()
}

func (m *Manager) receiver() Receiver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recv
}

// SendMessage enqueues a message for asynchronous delivery. When the outbox
// is full the message is dropped with a log line.
func (m *Manager) SendMessage(msg protocol.Message) {
	select {
	case m.outbox <- msg:
	default:
		m.log.Warn().Str("method", msg.Method).Msg("outbox full, message dropped")
	}
}

// Run dials the inspector and keeps the link alive until ctx is cancelled,
// reconnecting with exponential backoff. Blocks. A receiver must be bound
// first.
func (m *Manager) Run(ctx context.Context) error {
	if m.receiver() == nil {
		return errors.New("transport: no receiver bound")
	}
	backoff := m.opts.BackoffMin
	for {
		conn, err := m.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.log.Warn().Err(err).Dur("retryIn", backoff).Msg("dial failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, m.opts.BackoffMax)
			continue
		}
		backoff = m.opts.BackoffMin

		m.serve(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (m *Manager) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(m.opts.URL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if m.opts.App != "" {
		q.Set("app", m.opts.App)
	}
	if m.opts.DeviceID != "" {
		q.Set("device", m.opts.DeviceID)
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	if m.opts.Token != "" {
		header.Set("Authorization", "Bearer "+m.opts.Token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: m.opts.DialTimeout}
	dialCtx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, u.String(), header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// serve runs one connection until it fails or ctx is cancelled.
func (m *Manager) serve(ctx context.Context, conn *websocket.Conn) {
	recv := m.receiver()
	connID := uuid.New().String()
	log := m.log.With("connId", connID)
	log.Info().Str("url", m.opts.URL).Msg("connected")

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.writePump(conn, stop, log)
	}()

	recv.OnConnected()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("read loop ended")
			break
		}
		recv.OnMessage(raw)
	}

	close(stop)
	conn.Close()
	wg.Wait()

	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()

	recv.OnDisconnected()
}

func (m *Manager) writePump(conn *websocket.Conn, stop <-chan struct{}, log *logging.Logger) {
	for {
		select {
		case <-stop:
			return
		case msg := <-m.outbox:
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("method", msg.Method).Msg("write failed, message dropped")
				return
			}
		}
	}
}
