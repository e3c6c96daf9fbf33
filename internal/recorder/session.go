// Package recorder holds the in-progress recording session: an active flag
// and the ordered media chunks captured since it started.
package recorder

import (
	"bytes"
	"sync"
	"time"
)

// Session accumulates media chunks between Start and Stop. Only one
// recording may be active at a time.
type Session struct {
	mu        sync.RWMutex
	active    bool
	chunks    [][]byte
	bytes     int
	startTime time.Time
}

// NewSession creates an inactive session.
func NewSession() *Session {
	return &Session{}
}

// Start begins a new recording at now. It clears any previous chunks and
// returns true. If a recording is already active it changes nothing and
// returns false.
func (s *Session) Start(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return false
	}

	s.chunks = nil
	s.bytes = 0
	s.startTime = now
	s.active = true
	return true
}

// Append adds a copy of chunk to the active recording. Chunks received
// while inactive are dropped and Append returns false.
func (s *Session) Append(chunk []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	if len(chunk) == 0 {
		return true
	}

	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.chunks = append(s.chunks, c)
	s.bytes += len(c)
	return true
}

// Stop finalizes the active recording and returns all chunks concatenated
// in arrival order. The session keeps no reference to them afterwards. If
// no recording is active it returns nil, false.
func (s *Session) Stop() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, false
	}

	data := bytes.Join(s.chunks, nil)
	if data == nil {
		data = []byte{}
	}
	s.chunks = nil
	s.bytes = 0
	s.active = false
	return data, true
}

// Active reports whether a recording is in progress.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Chunks returns the number of chunks in the active recording.
func (s *Session) Chunks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Bytes returns the total size of the chunks in the active recording.
func (s *Session) Bytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

// StartTime returns when the current or last recording started.
func (s *Session) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startTime
}
