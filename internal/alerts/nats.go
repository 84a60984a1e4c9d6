// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/loglens/internal/logging"
)

const (
	defaultSubjectPrefix = "loglens.alerts"
	defaultMaxReconnects = 10
	defaultReconnectWait = time.Second
	natsMetadataAlertID  = "alert_id"
	natsMetadataSeverity = "severity"
)

// ErrNotifierClosed is returned by Send after Close.
var ErrNotifierClosed = errors.New("notifier is closed")

// NATSConfig configures the NATS notifier.
type NATSConfig struct {
	URL           string        `json:"url"`
	SubjectPrefix string        `json:"subject_prefix"`
	Enabled       bool          `json:"enabled"`
	MaxReconnects int           `json:"max_reconnects"`
	ReconnectWait time.Duration `json:"reconnect_wait"`

	// BreakerFailures opens the circuit after this many consecutive
	// failed publishes.
	BreakerFailures uint32 `json:"breaker_failures"`
}

// NATSNotifier publishes alerts as JSON on core NATS subjects of the form
// <prefix>.<category>.<severity>, lower-cased.
type NATSNotifier struct {
	publisher message.Publisher
	prefix    string
	enabled   bool
	breaker   *breaker

	mu     sync.RWMutex
	closed bool
}

// NewNATSNotifier connects a watermill publisher to cfg.URL.
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = defaultSubjectPrefix
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = defaultMaxReconnects
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = defaultReconnectWait
	}

	logger := watermill.NewSlogLogger(logging.NewSlogLogger("nats"))

	natsOpts := []natsgo.Option{
		natsgo.Name("loglens-alerts"),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	return &NATSNotifier{
		publisher: pub,
		prefix:    strings.TrimSuffix(cfg.SubjectPrefix, "."),
		enabled:   cfg.Enabled,
		breaker:   newBreaker("alert-nats", cfg.BreakerFailures),
	}, nil
}

// Name returns the notifier name.
func (n *NATSNotifier) Name() string {
	return "nats"
}

// Enabled returns whether this notifier is enabled and open.
func (n *NATSNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && !n.closed
}

// Subject returns the subject an alert is published on.
func (n *NATSNotifier) Subject(alert *Alert) string {
	return Subject(n.prefix, alert)
}

// Subject builds <prefix>.<category>.<severity> in lower case.
func Subject(prefix string, alert *Alert) string {
	category := strings.ToLower(string(alert.Category))
	if category == "" {
		category = "uncategorized"
	}
	severity := strings.ToLower(string(alert.Severity))
	if severity == "" {
		severity = "unknown"
	}
	return prefix + "." + category + "." + severity
}

// Send publishes one alert.
func (n *NATSNotifier) Send(ctx context.Context, alert *Alert) error {
	n.mu.RLock()
	closed, enabled := n.closed, n.enabled
	n.mu.RUnlock()
	if closed {
		return ErrNotifierClosed
	}
	if !enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", alert.ID, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(natsMetadataAlertID, alert.ID)
	msg.Metadata.Set(natsMetadataSeverity, string(alert.Severity))
	msg.SetContext(ctx)

	subject := n.Subject(alert)
	return n.breaker.execute(func() error {
		if err := n.publisher.Publish(subject, msg); err != nil {
			return fmt.Errorf("publish %s: %w", subject, err)
		}
		return nil
	})
}

// Close closes the underlying connection.
func (n *NATSNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	return n.publisher.Close()
}
