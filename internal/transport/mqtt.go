// ABOUTME: MQTT subscriber that feeds notification payloads to the relay.
// ABOUTME: Re-subscribes on every (re)connect; messages are delivered in order.

package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 30 * time.Second
	disconnectQuiesce = 250 // ms
)

// MQTTOptions configures an MQTTSource.
type MQTTOptions struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Topic     string
	QoS       byte
	KeepAlive time.Duration
	// TLS is used for ssl:// and wss:// brokers; nil means default settings.
	TLS *tls.Config

	// OnConnect runs after each successful (re)connect and subscription.
	OnConnect func()
	// OnConnectionLost runs when an established connection drops.
	OnConnectionLost func(error)
}

// MQTTSource subscribes to a single topic.
type MQTTSource struct {
	opts   MQTTOptions
	logger *slog.Logger

	// handling is held while a message is being handled.
	handling sync.Mutex
}

// NewMQTTSource returns a Source for the given broker and topic.
func NewMQTTSource(opts MQTTOptions, logger *slog.Logger) *MQTTSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MQTTSource{opts: opts, logger: logger}
}

func (s *MQTTSource) Describe() string {
	return s.opts.BrokerURL + " topic " + s.opts.Topic
}

// Run connects, subscribes and blocks until ctx is cancelled.
func (s *MQTTSource) Run(ctx context.Context, handle Handler) error {
	client := mqtt.NewClient(s.clientOptions(ctx, handle))

	token := client.Connect()
	timer := time.NewTimer(connectTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		go client.Disconnect(0)
		return ctx.Err()
	case <-timer.C:
		go client.Disconnect(0)
		return fmt.Errorf("connect to %s: timed out after %s", s.opts.BrokerURL, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", s.opts.BrokerURL, err)
	}

	<-ctx.Done()
	client.Disconnect(disconnectQuiesce)
	s.drain()
	return nil
}

// drain waits for the message being handled, if any, to finish. Messages
// that arrive afterwards see the cancelled context and are dropped.
func (s *MQTTSource) drain() {
	s.handling.Lock()
	defer s.handling.Unlock()
}

func (s *MQTTSource) clientOptions(ctx context.Context, handle Handler) *mqtt.ClientOptions {
	o := mqtt.NewClientOptions().
		AddBroker(s.opts.BrokerURL).
		SetClientID(s.opts.ClientID).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectTimeout(connectTimeout)

	if s.opts.KeepAlive > 0 {
		o.SetKeepAlive(s.opts.KeepAlive)
	}
	if s.opts.Username != "" && s.opts.Password != "" {
		o.SetUsername(s.opts.Username)
		o.SetPassword(s.opts.Password)
	}
	if s.opts.TLS != nil {
		o.SetTLSConfig(s.opts.TLS)
	}

	onMessage := s.messageHandler(ctx, handle)
	o.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.opts.Topic, s.opts.QoS, onMessage)
		go func() {
			token.Wait()
			if err := token.Error(); err != nil {
				s.logger.Error("subscribe failed", slog.String("topic", s.opts.Topic), slog.Any("error", err))
				return
			}
			s.logger.Info("subscribed", slog.String("topic", s.opts.Topic), slog.Int("qos", int(s.opts.QoS)))
			if s.opts.OnConnect != nil {
				s.opts.OnConnect()
			}
		}()
	})
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn("disconnected unexpectedly", slog.Any("error", err))
		if s.opts.OnConnectionLost != nil {
			s.opts.OnConnectionLost(err)
		}
	})
	o.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		s.logger.Info("reconnecting", slog.String("broker", s.opts.BrokerURL))
	})
	return o
}

// messageHandler drops messages that arrive after shutdown began so a
// cancelled relay never starts a new notification.
func (s *MQTTSource) messageHandler(ctx context.Context, handle Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		s.handling.Lock()
		defer s.handling.Unlock()
		if ctx.Err() != nil {
			return
		}
		handle(ctx, msg.Payload())
	}
}

// ErrNoTopic is returned by ValidateTopic for an empty subscription.
var ErrNoTopic = errors.New("mqtt topic is empty")

// ValidateTopic checks a subscription filter for the wildcard rules MQTT
// brokers enforce, so configuration mistakes fail at startup.
func ValidateTopic(topic string) error {
	if topic == "" {
		return ErrNoTopic
	}
	for i, r := range topic {
		switch r {
		case '#':
			if i != len(topic)-1 || (i > 0 && topic[i-1] != '/') {
				return fmt.Errorf("topic %q: '#' must be the last level", topic)
			}
		case '+':
			if (i > 0 && topic[i-1] != '/') || (i < len(topic)-1 && topic[i+1] != '/') {
				return fmt.Errorf("topic %q: '+' must occupy a whole level", topic)
			}
		}
	}
	return nil
}
