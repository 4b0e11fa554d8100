package notification

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(slog.Default())
	go hub.Run()
	t.Cleanup(hub.Shutdown)
	return hub
}

func registerAndWait(t *testing.T, hub *Hub, client *Client) {
	t.Helper()

	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.IsOnline(client.profileID)
	}, time.Second, 5*time.Millisecond)
}

func TestHubSendToProfile(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub, nil, 7)
	registerAndWait(t, hub, client)

	ok := hub.SendToProfile(7, WSMessage{Type: "dining.invited"})
	assert.True(t, ok)

	select {
	case frame := <-client.send:
		assert.Contains(t, string(frame), "dining.invited")
	default:
		t.Fatal("expected a queued frame")
	}

	assert.False(t, hub.SendToProfile(99, WSMessage{Type: "dining.invited"}))
}

func TestHubReplacesConnectionForSameProfile(t *testing.T) {
	hub := newTestHub(t)

	first := NewClient(hub, nil, 3)
	registerAndWait(t, hub, first)

	second := NewClient(hub, nil, 3)
	hub.register <- second
	require.Eventually(t, func() bool {
		return first.closedForTest()
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, hub.ActiveConnections())

	require.True(t, hub.SendToProfile(3, WSMessage{Type: "dining.accepted"}))
	select {
	case <-second.send:
	default:
		t.Fatal("expected the frame on the replacement connection")
	}
}

func TestSendToProfileAfterCloseDoesNotPanic(t *testing.T) {
	hub := newTestHub(t)

	client := NewClient(hub, nil, 11)
	registerAndWait(t, hub, client)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.SendToProfile(11, WSMessage{Type: "dining.completed"})
		}
	}()
	go func() {
		defer wg.Done()
		client.Close()
	}()

	wg.Wait()

	assert.False(t, client.TrySend([]byte("late")))
	assert.False(t, hub.SendToProfile(11, WSMessage{Type: "dining.completed"}))
}

func (c *Client) closedForTest() bool {
	c.sendMux.Lock()
	defer c.sendMux.Unlock()
	return c.closed
}
