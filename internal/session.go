package internal

import (
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// SessionState tracks one activation of (identity, room).
type SessionState int

const (
	StateIdle SessionState = iota
	StateActivating
	StateActive
	StateDeactivating
)

const maxAttachments = 5

// Completion messages for the session manager's async work. Every one
// carries the activation generation it was issued under; Update drops
// anything stale so a slow fetch can never corrupt a newer session.
type (
	historyFetchedMsg struct {
		gen      uint64
		messages []Message
		err      error
	}
	channelOpenedMsg struct {
		gen uint64
		ch  Channel
		err error
	}
	channelInboundMsg struct {
		gen     uint64
		message Message
	}
	channelLostMsg struct {
		gen uint64
		err error
	}
	sendResultMsg struct {
		gen     uint64
		message Message
		err     error
	}
)

// SessionManager owns the lifecycle of a room connection: it tears down the
// previous channel on any identity or room change, seeds the log from
// history, folds live events in receipt order, and serializes outgoing
// sends through the attachment uploader. All mutation happens on the
// bubbletea update goroutine; the async edges only ever come back as the
// typed messages above.
type SessionManager struct {
	history HistoryFetcher
	uploads Uploader
	dialer  Dialer
	stats   *ClientStats
	logger  *log.Logger

	state     SessionState
	identity  Identity
	room      Room
	gen       uint64
	channel   Channel
	connState ConnState
	log       []Message

	inlineErr error
}

func NewSessionManager(history HistoryFetcher, uploads Uploader, dialer Dialer, stats *ClientStats, logger *log.Logger) *SessionManager {
	if stats == nil {
		stats = NewClientStats()
	}
	return &SessionManager{
		history: history,
		uploads: uploads,
		dialer:  dialer,
		stats:   stats,
		logger:  logger,
	}
}

func (s *SessionManager) State() SessionState { return s.state }
func (s *SessionManager) ConnState() ConnState {
	return s.connState
}
func (s *SessionManager) Room() Room         { return s.room }
func (s *SessionManager) Identity() Identity { return s.identity }
func (s *SessionManager) InlineErr() error   { return s.inlineErr }
func (s *SessionManager) ClearInlineErr()    { s.inlineErr = nil }

// Log returns the message log in arrival order: the history segment first,
// then live events and optimistic sends as they happened.
func (s *SessionManager) Log() []Message { return s.log }

// Activate starts the first activation for a freshly signed-in identity.
func (s *SessionManager) Activate(identity Identity, roomID, roomName string) tea.Cmd {
	return s.activate(identity, Room{ID: roomID, Name: roomName})
}

// SelectRoom switches the active room. Re-selecting the current room is a
// no-op so redundant picks in the directory don't bounce the connection.
func (s *SessionManager) SelectRoom(roomID, roomName string) tea.Cmd {
	if s.state != StateIdle && roomID == s.room.ID {
		s.room.Name = roomName
		return nil
	}
	return s.activate(s.identity, Room{ID: roomID, Name: roomName})
}

func (s *SessionManager) activate(identity Identity, room Room) tea.Cmd {
	if identity.UserID == "" || room.ID == "" {
		s.inlineErr = &ValidationError{Reason: "no identity or room selected"}
		return nil
	}

	// Leave the old room before anything dials the new one. Close writes the
	// leave event synchronously, which is what keeps leave{A} strictly ahead
	// of join{B} on a room switch.
	s.closeChannel()

	s.gen++
	gen := s.gen
	s.state = StateActivating
	s.identity = identity
	s.room = room
	s.log = nil
	s.connState = Connecting
	s.inlineErr = nil

	return tea.Batch(s.fetchHistoryCmd(gen, room.ID), s.openChannelCmd(gen, identity, room.ID))
}

// Teardown ends the current activation. Used on logout; calling it again
// when already Idle does nothing.
func (s *SessionManager) Teardown() {
	if s.state == StateIdle {
		return
	}
	s.state = StateDeactivating
	s.closeChannel()
	s.gen++ // orphans every in-flight completion
	s.log = nil
	s.room = Room{}
	s.identity = Identity{}
	s.connState = Disconnected
	s.inlineErr = nil
	s.state = StateIdle
}

// Reconnect redials the current room after a lost connection. There is no
// automatic retry policy; this is the manual path behind the connectivity
// indicator.
func (s *SessionManager) Reconnect() tea.Cmd {
	if s.state == StateIdle || s.connState != Disconnected {
		return nil
	}
	return s.activate(s.identity, s.room)
}

// Send validates, uploads every pending attachment, and only then composes
// and appends the message. Partial uploads transmit nothing; the composer
// keeps its text and selection for a retry.
func (s *SessionManager) Send(text string, pending []PendingFile) tea.Cmd {
	s.inlineErr = nil
	if strings.TrimSpace(text) == "" && len(pending) == 0 {
		s.inlineErr = &ValidationError{Reason: "message or attachments cannot be empty"}
		return nil
	}
	if len(pending) > maxAttachments {
		s.inlineErr = &ValidationError{Reason: "you can only attach up to 5 files"}
		return nil
	}
	if s.state == StateIdle {
		s.inlineErr = &ValidationError{Reason: "no active room"}
		return nil
	}

	gen := s.gen
	identity := s.identity
	roomID := s.room.ID
	uploads := s.uploads
	files := append([]PendingFile(nil), pending...)

	return func() tea.Msg {
		refs := make([]AttachmentRef, 0, len(files))
		for _, file := range files {
			ref, err := uploads.Upload(file)
			if err != nil {
				return sendResultMsg{gen: gen, err: err}
			}
			refs = append(refs, ref)
		}
		return sendResultMsg{gen: gen, message: Message{
			LocalID:     uuid.NewString(),
			RoomID:      roomID,
			SenderID:    identity.UserID,
			SenderName:  identity.DisplayName,
			Body:        text,
			Attachments: refs,
		}}
	}
}

// Update folds async completions into the session. Anything stamped with an
// old generation belongs to a dead activation and is dropped on the floor.
func (s *SessionManager) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case historyFetchedMsg:
		if m.gen != s.gen {
			return nil
		}
		if m.err != nil {
			// Degraded activation: empty history, live messages still flow.
			s.logf("history fetch failed for room %s: %v", s.room.ID, m.err)
			return nil
		}
		// History seeds the head of the log. Live events that raced ahead of
		// the fetch stay behind it, in the order they arrived.
		s.log = append(append(make([]Message, 0, len(m.messages)+len(s.log)), m.messages...), s.log...)
		return nil

	case channelOpenedMsg:
		if m.gen != s.gen {
			// A dial that lost the race still holds a live socket; close it
			// so the old room doesn't keep a ghost member.
			if m.ch != nil {
				_ = m.ch.Close()
			}
			return nil
		}
		if m.err != nil {
			s.connState = Disconnected
			s.inlineErr = &ChannelError{Err: m.err}
			s.logf("channel open failed for room %s: %v", s.room.ID, m.err)
			return nil
		}
		s.channel = m.ch
		s.connState = Connected
		s.state = StateActive
		return s.readCmd(m.gen, m.ch)

	case channelInboundMsg:
		if m.gen != s.gen {
			return nil
		}
		s.log = append(s.log, m.message)
		s.stats.IncReceived()
		return s.readCmd(m.gen, s.channel)

	case channelLostMsg:
		if m.gen != s.gen {
			return nil
		}
		s.connState = Disconnected
		s.channel = nil
		s.inlineErr = &ChannelError{Err: m.err}
		s.logf("channel lost for room %s: %v", s.room.ID, m.err)
		return nil

	case sendResultMsg:
		if m.gen != s.gen {
			return nil
		}
		if m.err != nil {
			s.inlineErr = m.err
			return nil
		}
		// Optimistic append: visible locally before any server echo, and
		// never retracted.
		s.log = append(s.log, m.message)
		s.stats.IncSent()
		for range m.message.Attachments {
			s.stats.IncUpload()
		}
		if s.connState == Connected && s.channel != nil {
			if err := s.channel.Emit(eventMessage, m.message); err != nil {
				s.inlineErr = &ChannelError{Err: err}
				s.logf("transmit failed for room %s: %v", s.room.ID, err)
			}
		}
		// When disconnected the message stays local-only and is never
		// retried. Delivery confirmation is an avenue the protocol does not
		// offer today.
		return nil
	}
	return nil
}

func (s *SessionManager) closeChannel() {
	if s.channel != nil {
		_ = s.channel.Close()
		s.channel = nil
	}
	s.connState = Disconnected
}

func (s *SessionManager) fetchHistoryCmd(gen uint64, roomID string) tea.Cmd {
	history := s.history
	return func() tea.Msg {
		messages, err := history.Fetch(roomID)
		return historyFetchedMsg{gen: gen, messages: messages, err: err}
	}
}

func (s *SessionManager) openChannelCmd(gen uint64, identity Identity, roomID string) tea.Cmd {
	dialer := s.dialer
	return func() tea.Msg {
		ch, err := dialer.Dial(identity, roomID)
		return channelOpenedMsg{gen: gen, ch: ch, err: err}
	}
}

// readCmd delivers one inbound message and is re-queued by Update, the same
// chained single-read pattern the websocket client has always used.
func (s *SessionManager) readCmd(gen uint64, ch Channel) tea.Cmd {
	return func() tea.Msg {
		msg, err := ch.ReadNext()
		if err != nil {
			return channelLostMsg{gen: gen, err: err}
		}
		return channelInboundMsg{gen: gen, message: msg}
	}
}

func (s *SessionManager) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
