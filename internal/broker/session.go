package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sensdot/sensdot/internal/logging"
	"go.uber.org/zap"
)

// Session defaults
const (
	DefaultKeepAlive      = 60 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultPublishTimeout = 5 * time.Second

	// inboundBuffer bounds the queue between Paho's delivery goroutine
	// and DrainMessages. A sleepy sensor node drains a handful of
	// commands per cycle; anything beyond this is dropped with a log.
	inboundBuffer = 32

	// disconnectQuiesceMS is how long Disconnect lets in-flight work
	// finish before closing the socket
	disconnectQuiesceMS = 250
)

// SessionState is the connection lifecycle
type SessionState int

// Session states. A session always re-enters Disconnected and is
// reusable across cycles, but it never reconnects on its own.
const (
	Disconnected SessionState = iota
	Connecting
	Connected
)

// String implements fmt.Stringer
func (s SessionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Options configures a broker session
type Options struct {
	Broker         string // host or IP
	Port           uint16
	Username       string
	Password       string
	ClientID       string
	KeepAlive      time.Duration // 0 means DefaultKeepAlive
	ConnectTimeout time.Duration // 0 means DefaultConnectTimeout
	PublishTimeout time.Duration // 0 means DefaultPublishTimeout

	// Last-will, registered at connect time and published by the broker
	// if the session drops without a clean disconnect
	WillTopic   string
	WillPayload []byte
}

// inboundMessage is one message queued for DrainMessages
type inboundMessage struct {
	Topic   string
	Payload []byte
}

// Session is one MQTT session. Not safe for concurrent use; the
// firmware drives it from a single goroutine.
type Session struct {
	opts   Options
	client mqtt.Client
	state  SessionState

	// inbound is written by Paho's delivery goroutine and read by
	// DrainMessages on the caller's goroutine
	inbound chan inboundMessage
	dropped int

	mu sync.Mutex // guards inbound/dropped against the delivery goroutine

	// newClient is injectable for tests
	newClient func(*mqtt.ClientOptions) mqtt.Client
}

// NewSession creates a session from options. Nothing touches the
// network until Connect.
func NewSession(opts Options) *Session {
	if opts.KeepAlive == 0 {
		opts.KeepAlive = DefaultKeepAlive
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.PublishTimeout == 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &Session{
		opts:      opts,
		inbound:   make(chan inboundMessage, inboundBuffer),
		newClient: mqtt.NewClient,
	}
}

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	return s.state
}

// Address returns the broker endpoint as host:port
func (s *Session) Address() string {
	return fmt.Sprintf("%s:%d", s.opts.Broker, s.opts.Port)
}

// Connect dials the broker and waits for the CONNACK, bounded by the
// connect timeout. Failures come back as a classified SessionError.
func (s *Session) Connect(ctx context.Context) error {
	if s.state == Connected {
		return nil
	}

	s.state = Connecting
	logging.Info("Connecting to MQTT broker",
		zap.String("broker", s.Address()),
		zap.String("client_id", s.opts.ClientID),
		zap.String("state", s.state.String()),
	)

	pahoOpts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s", s.Address())).
		SetClientID(s.opts.ClientID).
		SetKeepAlive(s.opts.KeepAlive).
		SetConnectTimeout(s.opts.ConnectTimeout).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetCleanSession(true)

	if s.opts.Username != "" {
		pahoOpts.SetUsername(s.opts.Username)
		pahoOpts.SetPassword(s.opts.Password)
	}
	if s.opts.WillTopic != "" {
		pahoOpts.SetBinaryWill(s.opts.WillTopic, s.opts.WillPayload, 0, true)
	}

	s.client = s.newClient(pahoOpts)

	token := s.client.Connect()
	if !waitToken(ctx, token, s.opts.ConnectTimeout) {
		// The dial may still complete after we give up; close the client
		// so a late CONNACK cannot leave an orphaned session holding the
		// last-will registration.
		s.client.Disconnect(0)
		s.state = Disconnected
		return Classify(context.DeadlineExceeded, s.Address())
	}
	if err := token.Error(); err != nil {
		s.state = Disconnected
		classified := Classify(err, s.Address())
		logging.Warn("Broker connect failed",
			zap.String("broker", s.Address()),
			zap.String("kind", classified.Kind.String()),
			zap.Bool("retryable", classified.Retryable),
			zap.Error(err),
		)
		return classified
	}

	s.state = Connected
	logging.Info("Broker connected",
		zap.String("broker", s.Address()),
		zap.String("state", s.state.String()),
	)
	return nil
}

// Publish sends one message and waits for completion per the QoS level
func (s *Session) Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error {
	if s.state != Connected {
		return fmt.Errorf("cannot publish while %s", s.state)
	}

	token := s.client.Publish(topic, qos, retained, payload)
	if !waitToken(ctx, token, s.opts.PublishTimeout) {
		return Classify(context.DeadlineExceeded, s.Address())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	logging.LogPublish(topic, len(payload), qos, retained)
	return nil
}

// Subscribe registers interest in a topic. Messages are queued
// internally and only handed out by DrainMessages, never from a
// background goroutine.
func (s *Session) Subscribe(ctx context.Context, topic string, qos byte) error {
	if s.state != Connected {
		return fmt.Errorf("cannot subscribe while %s", s.state)
	}

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.enqueue(msg.Topic(), msg.Payload())
	})
	if !waitToken(ctx, token, s.opts.PublishTimeout) {
		return Classify(context.DeadlineExceeded, s.Address())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	logging.Debug("Subscribed", zap.String("topic", topic))
	return nil
}

// enqueue is called from Paho's delivery goroutine. When the buffer is
// full the message is dropped; a node that sleeps most of the day can
// always ask for state again.
func (s *Session) enqueue(topic string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.inbound <- inboundMessage{Topic: topic, Payload: payload}:
	default:
		s.dropped++
		logging.Warn("Inbound message dropped, queue full",
			zap.String("topic", topic),
			zap.Int("dropped_total", s.dropped),
		)
	}
}

// DrainMessages hands queued inbound messages to fn on the caller's
// goroutine. It waits up to wait for messages to arrive, then returns
// the number handled. fn runs synchronously; the whole firmware stays
// single-threaded.
func (s *Session) DrainMessages(ctx context.Context, wait time.Duration, fn func(topic string, payload []byte)) (int, error) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	handled := 0
	for {
		select {
		case msg := <-s.inbound:
			fn(msg.Topic, msg.Payload)
			handled++
		case <-deadline.C:
			return handled, nil
		case <-ctx.Done():
			return handled, ctx.Err()
		}
	}
}

// Disconnect ends the session cleanly. Idempotent: safe to call on a
// session that never connected, and always leaves the state
// Disconnected.
func (s *Session) Disconnect() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesceMS)
		logging.Info("Broker disconnected", zap.String("broker", s.Address()))
	}
	s.state = Disconnected
}

// waitToken waits for a Paho token with both a timeout and context
// cancellation. Returns false when time ran out first.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-token.Done():
		return true
	case <-deadline.C:
		return false
	case <-ctx.Done():
		return false
	}
}
