// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package testinfra provides shared test fixtures.
//
// # Event Builders
//
// NewEvent, FailedLogin and the With* options build models.Event values;
// Table normalizes them into an EventTable the way ingest would:
//
//	events := []models.Event{
//	    testinfra.FailedLogin(testinfra.At(0), "192.0.2.1", "admin"),
//	    testinfra.NewEvent(testinfra.At(time.Minute), testinfra.WithUser("alice")),
//	}
//	table := testinfra.Table(t, events)
//
// # Embedded NATS
//
// NewNATSServer starts an in-process nats-server on a random port and shuts it
// down in t.Cleanup. Subscribe and Receive read what notifiers publish.
//
// # Webhook Receiver
//
// NewMockWebhookServer records every request made to it and answers with a
// fixed status, for webhook notifier and dispatcher tests.
//
// Nothing here needs Docker or network access beyond loopback.
package testinfra
