package room

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/workspace/room-relay/internal/config"
)

// dialPeerPipe spins up a one-shot WebSocket endpoint and dials it,
// returning the server side (wrapped as a Peer of the given role) and the
// client side, so tests can exchange real wire frames instead of mocking
// *websocket.Conn.
func dialPeerPipe(t *testing.T, role Role, clientID string) (*Peer, *websocket.Conn) {
	t.Helper()

	var upgrader websocket.Upgrader
	serverConnCh := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverConnCh <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	serverConn := <-serverConnCh
	t.Cleanup(func() { serverConn.Close() })

	return newPeer(role, clientID, serverConn), client
}

func testRoom(t *testing.T) *Room {
	t.Helper()
	cfg, err := loadTestConfig(t)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return newRoom("test-room", cfg, testLogger())
}

func loadTestConfig(t *testing.T) (*config.Config, error) {
	t.Helper()
	return config.Load()
}

func testLogger() *slog.Logger {
	return slog.Default()
}
