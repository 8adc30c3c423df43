package internal

import "sync/atomic"

// ClientStats counts traffic for the chat footer.
type ClientStats struct {
	sent     atomic.Uint64
	received atomic.Uint64
	uploads  atomic.Uint64
}

func NewClientStats() *ClientStats {
	return &ClientStats{}
}

func (s *ClientStats) IncSent() {
	s.sent.Add(1)
}

func (s *ClientStats) IncReceived() {
	s.received.Add(1)
}

func (s *ClientStats) IncUpload() {
	s.uploads.Add(1)
}

// Snapshot returns sent, received, and uploaded counts.
func (s *ClientStats) Snapshot() (uint64, uint64, uint64) {
	return s.sent.Load(), s.received.Load(), s.uploads.Load()
}
