package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

// startSocketServer runs a websocket endpoint that records the handshake's
// Authorization header and forwards every parsed frame. The frames channel
// is closed when the peer drops.
func startSocketServer(t *testing.T) (string, chan string, chan wireEvent, chan *websocket.Conn) {
	t.Helper()
	authz := make(chan string, 1)
	frames := make(chan wireEvent, 8)
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz <- r.Header.Get("Authorization")
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				close(frames)
				return
			}
			var frame wireEvent
			if err := json.Unmarshal(payload, &frame); err == nil {
				frames <- frame
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), authz, frames, conns
}

func waitFrame(t *testing.T, frames chan wireEvent) (wireEvent, bool) {
	t.Helper()
	select {
	case frame, ok := <-frames:
		return frame, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return wireEvent{}, false
	}
}

func writeFrame(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	encoded, err := json.Marshal(wireEvent{Event: event, Data: data})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestDialAuthenticatesAndAnnouncesJoin(t *testing.T) {
	wsURL, authz, frames, _ := startSocketServer(t)

	ch, err := NewDialer(wsURL).Dial(Identity{Token: "tok", UserID: "u1"}, "room-1")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ch.Close()

	if got := <-authz; got != "Bearer tok" {
		t.Fatalf("authorization header = %q, want %q", got, "Bearer tok")
	}

	frame, ok := waitFrame(t, frames)
	if !ok {
		t.Fatal("connection dropped before join")
	}
	if frame.Event != eventJoin {
		t.Fatalf("first frame event = %q, want %q", frame.Event, eventJoin)
	}
	var member membership
	if err := json.Unmarshal(frame.Data, &member); err != nil {
		t.Fatalf("decode join payload: %v", err)
	}
	if member.UserID != "u1" || member.RoomID != "room-1" {
		t.Fatalf("join payload = %+v, want userId=u1 roomId=room-1", member)
	}
}

func TestCloseSendsLeaveBeforeTransportDrops(t *testing.T) {
	wsURL, _, frames, _ := startSocketServer(t)

	ch, err := NewDialer(wsURL).Dial(Identity{Token: "tok", UserID: "u1"}, "room-1")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if frame, _ := waitFrame(t, frames); frame.Event != eventJoin {
		t.Fatalf("expected join first, got %q", frame.Event)
	}

	if err := ch.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	frame, ok := waitFrame(t, frames)
	if !ok {
		t.Fatal("transport dropped before the leave frame arrived")
	}
	if frame.Event != eventLeave {
		t.Fatalf("post-close frame event = %q, want %q", frame.Event, eventLeave)
	}
	if _, ok := waitFrame(t, frames); ok {
		t.Fatal("unexpected frame after leave")
	}

	// a second close must not write another leave or panic
	if err := ch.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestReadNextSkipsNonChatFrames(t *testing.T) {
	wsURL, _, frames, conns := startSocketServer(t)

	ch, err := NewDialer(wsURL).Dial(Identity{Token: "tok", UserID: "u1"}, "room-1")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ch.Close()
	waitFrame(t, frames) // join

	server := <-conns
	writeFrame(t, server, "presence", map[string]int{"count": 3})
	if err := server.WriteMessage(websocket.BinaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("write binary frame: %v", err)
	}
	writeFrame(t, server, eventMessage, Message{
		RoomID:     "room-1",
		SenderID:   "u2",
		SenderName: "bob",
		Body:       "hey",
	})

	msg, err := ch.ReadNext()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Body != "hey" || msg.SenderName != "bob" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestReadNextReportsDisconnect(t *testing.T) {
	wsURL, _, frames, conns := startSocketServer(t)

	ch, err := NewDialer(wsURL).Dial(Identity{Token: "tok", UserID: "u1"}, "room-1")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitFrame(t, frames) // join

	server := <-conns
	server.Close()

	if _, err := ch.ReadNext(); err == nil {
		t.Fatal("expected an error after the server dropped the connection")
	}
}

func TestDialRejectsNonSocketScheme(t *testing.T) {
	if _, err := NewDialer("https://example.com/ws").Dial(Identity{Token: "tok", UserID: "u1"}, "room-1"); err == nil {
		t.Fatal("expected https scheme to be rejected")
	}
}
