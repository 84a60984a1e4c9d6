// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package alerts

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
)

// Notifier sends alerts to an external system.
type Notifier interface {
	// Send delivers one alert.
	Send(ctx context.Context, alert *Alert) error

	// Name returns the notifier name (e.g., "webhook", "nats").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}

// DeliveryStats counts the outcome of one dispatch.
type DeliveryStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatcher fans alerts out to registered notifiers.
type Dispatcher struct {
	mu          sync.RWMutex
	notifiers   []Notifier
	minSeverity models.Severity
}

// NewDispatcher returns a dispatcher delivering alerts at or above
// minSeverity. An empty minSeverity delivers everything.
func NewDispatcher(minSeverity models.Severity) *Dispatcher {
	return &Dispatcher{
		notifiers:   make([]Notifier, 0),
		minSeverity: minSeverity,
	}
}

// Register adds a notifier.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
	logging.Info().Str("notifier", n.Name()).Msg("registered notifier")
}

// Active returns the number of enabled notifiers.
func (d *Dispatcher) Active() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, notifier := range d.notifiers {
		if notifier.Enabled() {
			n++
		}
	}
	return n
}

// Notify delivers every qualifying alert to every enabled notifier and waits
// for all deliveries to finish. Each notifier receives alerts in feed order.
// Failures are logged and counted, never returned.
func (d *Dispatcher) Notify(ctx context.Context, feed []Alert) DeliveryStats {
	pending := Filter(feed, d.minSeverity)
	if len(pending) == 0 {
		return DeliveryStats{}
	}

	d.mu.RLock()
	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	d.mu.RUnlock()

	var sent, failed atomic.Int64
	var wg sync.WaitGroup
	for _, n := range notifiers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range pending {
				err := n.Send(ctx, &pending[i])
				metrics.RecordNotification(n.Name(), err)
				if err != nil {
					failed.Add(1)
					logging.CtxErr(ctx, err).
						Str("notifier", n.Name()).
						Str("alert_id", pending[i].ID).
						Msg("failed to send alert")
					continue
				}
				sent.Add(1)
			}
		}()
	}
	wg.Wait()

	return DeliveryStats{Sent: int(sent.Load()), Failed: int(failed.Load())}
}
