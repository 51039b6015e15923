package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/swing/backend/pkg/logger"
)

func httpHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(hub.ServeWS)
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(logger.NewNop())
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	conn := dial(t, server)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Broadcast("rankings", []string{"TCS.BO", "INFY.BO"}))

	msg := readMessage(t, conn)
	assert.Equal(t, "rankings", msg["type"])
	assert.Equal(t, []interface{}{"TCS.BO", "INFY.BO"}, msg["data"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestHub_LateSubscriberGetsLastMessage(t *testing.T) {
	hub := NewHub(logger.NewNop())
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	require.NoError(t, hub.Broadcast("rankings", map[string]int{"count": 3}))

	conn := dial(t, server)
	msg := readMessage(t, conn)
	assert.Equal(t, map[string]interface{}{"count": float64(3)}, msg["data"])
}

func TestHub_DisconnectAndClose(t *testing.T) {
	hub := NewHub(logger.NewNop())
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	conn := dial(t, server)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)

	conn = dial(t, server)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server closed the connection")

	// closed hub rejects new subscribers
	late := dial(t, server)
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
}

func TestHub_BroadcastMarshalError(t *testing.T) {
	hub := NewHub(logger.NewNop())
	assert.Error(t, hub.Broadcast("rankings", make(chan int)))
}
