package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/mmbrian/graph-ical-sub001/errors"
	"github.com/mmbrian/graph-ical-sub001/natsclient"
)

// RefreshSubject is the NATS subject refresh notifications are
// republished on for consumers outside the process.
const RefreshSubject = "graph.events.refresh"

// refreshStream is the JetStream stream capturing refresh notifications
// so consumers that were offline see that the graph moved underneath
// them.
const refreshStream = "GRAPH_EVENTS"

// refreshMessage is the wire body. The in-process notification carries
// no payload; the timestamp here exists for operability only.
type refreshMessage struct {
	OccurredAt time.Time `json:"occurred_at"`
}

// Forwarder bridges bus notifications onto NATS.
type Forwarder struct {
	client *natsclient.Client
	logger *slog.Logger
}

// NewForwarder creates a forwarder publishing through client.
func NewForwarder(client *natsclient.Client, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{client: client, logger: logger}
}

// EnsureStream creates or updates the JetStream stream backing the
// refresh subject.
func (f *Forwarder) EnsureStream(ctx context.Context) error {
	js := f.client.JetStream()
	if js == nil {
		return errors.WrapTransient(natsclient.ErrNotConnected, "Forwarder", "EnsureStream", "JetStream context")
	}

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     refreshStream,
		Subjects: []string{RefreshSubject},
		MaxAge:   24 * time.Hour,
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return errors.WrapTransient(err, "Forwarder", "EnsureStream", "create stream")
	}
	return nil
}

// Run consumes the bus until ctx is cancelled, republishing every
// notification. Publish failures are logged and do not stop the loop:
// NATS delivery is best-effort on top of the in-process bus, never a
// gate for it.
func (f *Forwarder) Run(ctx context.Context, bus *Bus) {
	ch, cancel := bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			body, err := json.Marshal(refreshMessage{OccurredAt: time.Now().UTC()})
			if err != nil {
				f.logger.Error("marshal refresh message failed", "error", err)
				continue
			}
			if err := f.client.Publish(ctx, RefreshSubject, body); err != nil {
				f.logger.Warn("forwarding refresh notification failed", "error", err)
			}
		}
	}
}
