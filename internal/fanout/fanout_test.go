package fanout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestBroadcastReachesListeners(t *testing.T) {
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	first := dialTestHub(t, hub)
	second := dialTestHub(t, hub)

	hub.NewPost(map[string]string{"id": "post-1", "title": "hello"})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))

		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, EventNewPost, ev.Type)

		payload, ok := ev.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "post-1", payload["id"])
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	// No Run loop and no listeners: publishing past the buffer must drop,
	// not hang.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.NewPost(map[string]int{"n": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
}
