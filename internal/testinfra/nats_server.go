// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package testinfra

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// NATSServer is an in-process core NATS server bound to a random local port.
type NATSServer struct {
	server *server.Server
}

// NewNATSServer starts an embedded server and shuts it down when the test
// ends.
func NewNATSServer(t *testing.T) *NATSServer {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		ServerName: "loglens-test",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready within timeout")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return &NATSServer{server: ns}
}

// URL returns the client connection URL.
func (s *NATSServer) URL() string {
	return s.server.ClientURL()
}

// Subscribe connects a plain client and returns a channel of messages on
// subject, which may contain wildcards. The subscription is flushed before
// returning so publishes that follow are observed.
func (s *NATSServer) Subscribe(t *testing.T, subject string) <-chan *nats.Msg {
	t.Helper()

	nc, err := nats.Connect(s.URL())
	if err != nil {
		t.Fatalf("connect to NATS: %v", err)
	}
	t.Cleanup(nc.Close)

	ch := make(chan *nats.Msg, 64)
	if _, err := nc.ChanSubscribe(subject, ch); err != nil {
		t.Fatalf("subscribe %s: %v", subject, err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush subscription: %v", err)
	}
	return ch
}

// Receive waits for one message or fails the test after timeout.
func Receive(t *testing.T, ch <-chan *nats.Msg, timeout time.Duration) *nats.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("no NATS message within %v", timeout)
		return nil
	}
}
