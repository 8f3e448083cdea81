package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mmbrian/graph-ical-sub001/natsclient"
)

func TestEnsureStreamWithoutConnection(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	f := NewForwarder(client, nil)
	assert.Error(t, f.EnsureStream(context.Background()))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	f := NewForwarder(client, nil)
	bus := NewBus()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx, bus)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop on context cancel")
	}
}

func TestIntegrationForwarderRepublishes(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	natsContainer, natsURL := startJetStreamContainer(ctx, t)
	defer natsContainer.Terminate(ctx)

	client, err := natsclient.NewClient(natsURL, natsclient.WithMaxReconnects(0))
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	f := NewForwarder(client, nil)
	require.NoError(t, f.EnsureStream(ctx))

	received := make(chan []byte, 1)
	_, err = client.Subscribe(RefreshSubject, func(data []byte) {
		received <- data
	})
	require.NoError(t, err)

	bus := NewBus()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.Run(runCtx, bus)

	// Wait until the forwarder has subscribed to the bus.
	require.Eventually(t, func() bool {
		return bus.Subscribers() == 1
	}, time.Second, 10*time.Millisecond)

	bus.Publish(Refresh{})

	select {
	case data := <-received:
		var msg struct {
			OccurredAt time.Time `json:"occurred_at"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.False(t, msg.OccurredAt.IsZero())
	case <-time.After(3 * time.Second):
		t.Fatal("refresh notification was not forwarded")
	}
}

func startJetStreamContainer(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.11.7-alpine",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForListeningPort("4222/tcp"),
		Cmd:          []string{"--js"},
	}

	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := natsContainer.Host(ctx)
	require.NoError(t, err)

	port, err := natsContainer.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return natsContainer, fmt.Sprintf("nats://%s:%s", host, port.Port())
}
