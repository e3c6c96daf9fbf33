package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/landmark"
)

// MockDetector returns scripted results. With a queue set it pops one
// result per call and then repeats the fallback.
type MockDetector struct {
	mu       sync.Mutex
	queue    []*Result
	fallback *Result
	err      error
	calls    int
}

// NewMockDetector creates a MockDetector that finds nothing.
func NewMockDetector() *MockDetector {
	return &MockDetector{fallback: &Result{}}
}

// SetResult sets the result returned once the queue is drained.
func (m *MockDetector) SetResult(r *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = r
}

// SetHands is a shorthand for a fallback result with only hands.
func (m *MockDetector) SetHands(hands []landmark.HandLandmarks) {
	m.SetResult(&Result{Hands: hands})
}

// Enqueue appends results returned in order before the fallback.
func (m *MockDetector) Enqueue(results ...*Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, results...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockDetector) Detect(frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		r := m.queue[0]
		m.queue = m.queue[1:]
		return r, nil
	}
	return m.fallback, nil
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
