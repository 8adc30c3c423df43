package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// ConnState is owned by the channel layer and only observed by the session
// manager to gate outbound sends.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	eventJoin    = "join"
	eventLeave   = "leave"
	eventMessage = "chatMessage"
)

// wireEvent is the JSON envelope every socket frame travels in.
type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// membership is the join/leave payload the server uses to manage the room's
// broadcast group.
type membership struct {
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

// Channel is one live connection for a (user, room) pair. The session
// manager is its only owner; nothing else may Emit or Close.
type Channel interface {
	Emit(event string, payload interface{}) error
	ReadNext() (Message, error)
	Close() error
}

// Dialer opens channels. Swapped for a fake in tests.
type Dialer interface {
	Dial(identity Identity, roomID string) (Channel, error)
}

type wsDialer struct {
	socketURL string
}

func NewDialer(socketURL string) Dialer {
	return &wsDialer{socketURL: socketURL}
}

// Dial authenticates during the websocket handshake and, once the transport
// is up, announces membership with a join event before handing the channel
// back. A join that cannot be written counts as a failed open.
func (d *wsDialer) Dial(identity Identity, roomID string) (Channel, error) {
	parsed, err := url.Parse(d.socketURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("invalid scheme for websocket: %s", parsed.Scheme)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+identity.Token)
	conn, _, err := websocket.DefaultDialer.Dial(parsed.String(), header)
	if err != nil {
		return nil, err
	}
	channel := &wsChannel{conn: conn, userID: identity.UserID, roomID: roomID}
	if err := channel.Emit(eventJoin, membership{UserID: identity.UserID, RoomID: roomID}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return channel, nil
}

type wsChannel struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	userID    string
	roomID    string
}

func (c *wsChannel) Emit(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(wireEvent{Event: event, Data: data})
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, encoded)
}

// ReadNext blocks for the next chatMessage from any room member. Frames for
// other events are skipped. A read error stands for the disconnect signal.
func (c *wsChannel) ReadNext() (Message, error) {
	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			return Message{}, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var frame wireEvent
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		if frame.Event != eventMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			continue
		}
		return msg, nil
	}
}

// Close announces leave before the transport drops. A socket that
// disconnects without leaving strands a stale membership on the server, so
// the ordering here is load-bearing. Safe to call more than once.
func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.Emit(eventLeave, membership{UserID: c.userID, RoomID: c.roomID})
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
