package sms

import (
	"context"
	"sync"
)

// MockMessenger implements Messenger for testing. SendFunc, when set, decides
// the outcome per call; every call is recorded.
type MockMessenger struct {
	SendFunc func(ctx context.Context, to, body string) (string, error)

	mu    sync.Mutex
	sends []SentMessage
}

// SentMessage records one Send call.
type SentMessage struct {
	To   string
	Body string
}

func (m *MockMessenger) Send(ctx context.Context, to, body string) (string, error) {
	m.mu.Lock()
	m.sends = append(m.sends, SentMessage{To: to, Body: body})
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, body)
	}
	return "mock-sid", nil
}

// Sends returns a copy of the recorded calls.
func (m *MockMessenger) Sends() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sends...)
}
