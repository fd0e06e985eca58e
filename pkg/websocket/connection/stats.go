package connection

import "sync"

// Stats tracks connection-level counters. Safe for concurrent use.
type Stats struct {
	mu sync.Mutex

	connects             int64
	disconnects          int64
	proactiveDisconnects int64
	messagesReceived     int64
	messagesSent         int64
	bytesReceived        int64
	bytesSent            int64
}

// StatsSnapshot is a consistent point-in-time copy of the counters.
type StatsSnapshot struct {
	Connects             int64 `json:"connects"`
	Disconnects          int64 `json:"disconnects"`
	ProactiveDisconnects int64 `json:"proactive_disconnects"`
	MessagesReceived     int64 `json:"messages_received"`
	MessagesSent         int64 `json:"messages_sent"`
	BytesReceived        int64 `json:"bytes_received"`
	BytesSent            int64 `json:"bytes_sent"`
}

func NewStats() *Stats {
	return &Stats{}
}

// IncrementConnects records one successful connect.
func (s *Stats) IncrementConnects() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
}

// IncrementDisconnects records one disconnect, tagged proactive when the
// drop was a deliberate cycle.
func (s *Stats) IncrementDisconnects(proactive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	if proactive {
		s.proactiveDisconnects++
	}
}

// AddReceived records one inbound message of n bytes.
func (s *Stats) AddReceived(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesReceived++
	s.bytesReceived += int64(n)
}

// AddSent records one outbound message of n bytes.
func (s *Stats) AddSent(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesSent++
	s.bytesSent += int64(n)
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects = 0
	s.disconnects = 0
	s.proactiveDisconnects = 0
	s.messagesReceived = 0
	s.messagesSent = 0
	s.bytesReceived = 0
	s.bytesSent = 0
}

// Snapshot returns a consistent copy of all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Connects:             s.connects,
		Disconnects:          s.disconnects,
		ProactiveDisconnects: s.proactiveDisconnects,
		MessagesReceived:     s.messagesReceived,
		MessagesSent:         s.messagesSent,
		BytesReceived:        s.bytesReceived,
		BytesSent:            s.bytesSent,
	}
}
