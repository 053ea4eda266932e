package infra

import (
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHubServer(t *testing.T) (*Websocket, string) {
	t.Helper()
	hub := NewWebsocket(zap.NewNop())
	e := echo.New()
	e.GET("/ws/:key", func(c echo.Context) error {
		key, _ := strconv.Atoi(c.Param("key"))
		return hub.Subscribe(c, key)
	})
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWebsocket_PushToKey(t *testing.T) {
	hub, url := newHubServer(t)

	first := dial(t, url+"/ws/1")
	defer first.Close()
	second := dial(t, url+"/ws/1")
	defer second.Close()
	other := dial(t, url+"/ws/2")
	defer other.Close()

	require.Eventually(t, func() bool {
		return hub.Count(1) == 2 && hub.Count(2) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, hub.Push(1, map[string]string{"type": "alert", "message": "boom"}))
	for _, conn := range []*websocket.Conn{first, second} {
		var frame map[string]string
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, "boom", frame["message"])
	}

	assert.Equal(t, 0, hub.Push(3, "nobody"))
}

func TestWebsocket_UnregisterOnClose(t *testing.T) {
	hub, url := newHubServer(t)

	conn := dial(t, url+"/ws/5")
	require.Eventually(t, func() bool { return hub.Count(5) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Count(5) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Push(5, "gone"))
}
