package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campusmatch/internal/testutil"
	"github.com/oggyb/campusmatch/internal/ws"
)

// roomHandler joins the requested room and relays chat frames to it.
type roomHandler struct {
	hub *ws.Hub
}

func (h roomHandler) HandleFrame(ctx context.Context, c *ws.Client, f ws.Frame) {
	switch f.Event {
	case ws.EventJoin:
		var roomID string
		_ = json.Unmarshal(f.Data, &roomID)
		h.hub.Join(c, roomID)
		c.SendEvent(ws.EventJoined, roomID)
	case ws.EventChatMessage:
		_ = h.hub.Broadcast(ctx, "r1", ws.EventChatMessage, f.Data, c)
	}
}

func startHub(t *testing.T, hub *ws.Hub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("email"), roomHandler{hub: hub})
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, email string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?email="+email, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	payload, err := ws.Encode(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

func read(t *testing.T, conn *websocket.Conn, wait time.Duration) (ws.Frame, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var f ws.Frame
	_, data, err := conn.ReadMessage()
	if err != nil {
		return f, err
	}
	require.NoError(t, json.Unmarshal(data, &f))
	return f, nil
}

func join(t *testing.T, conn *websocket.Conn, roomID string) {
	t.Helper()
	send(t, conn, ws.EventJoin, roomID)
	f, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, ws.EventJoined, f.Event)
}

func TestBroadcast_ExcludesOrigin(t *testing.T) {
	hub := ws.NewHub(testutil.DiscardLogger(), nil)
	url := startHub(t, hub)

	alice := dial(t, url, "a@u.edu")
	bob := dial(t, url, "b@u.edu")
	join(t, alice, "r1")
	join(t, bob, "r1")
	assert.Equal(t, 2, hub.RoomSize("r1"))

	send(t, alice, ws.EventChatMessage, map[string]string{"text": "hi"})

	f, err := read(t, bob, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ws.EventChatMessage, f.Event)
	assert.JSONEq(t, `{"text":"hi"}`, string(f.Data))

	// the sender does not get its own frame back
	_, err = read(t, alice, 200*time.Millisecond)
	assert.Error(t, err)
}

func TestMalformedFrame(t *testing.T) {
	hub := ws.NewHub(testutil.DiscardLogger(), nil)
	conn := dial(t, startHub(t, hub), "a@u.edu")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	f, err := read(t, conn, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ws.EventChatError, f.Event)
}

func TestDisconnectLeavesRooms(t *testing.T) {
	hub := ws.NewHub(testutil.DiscardLogger(), nil)
	conn := dial(t, startHub(t, hub), "a@u.edu")
	join(t, conn, "r1")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.RoomSize("r1") == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestRejectsUnknownOrigin(t *testing.T) {
	hub := ws.NewHub(testutil.DiscardLogger(), []string{"https://campusmatch.app"})
	url := startHub(t, hub)

	header := http.Header{"Origin": []string{"https://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url+"?email=a@u.edu", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBridge_DeliversAcrossHubs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rc, _ := testutil.NewRedis(t)
	hubA := ws.NewHub(testutil.DiscardLogger(), nil)
	hubB := ws.NewHub(testutil.DiscardLogger(), nil)
	require.NoError(t, hubA.EnableBridge(ctx, rc))
	require.NoError(t, hubB.EnableBridge(ctx, rc))

	bob := dial(t, startHub(t, hubB), "b@u.edu")
	join(t, bob, "r1")

	require.NoError(t, hubA.Broadcast(ctx, "r1", ws.EventChatMessage, map[string]string{"text": "from A"}, nil))

	f, err := read(t, bob, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, ws.EventChatMessage, f.Event)
	assert.JSONEq(t, `{"text":"from A"}`, string(f.Data))
}
