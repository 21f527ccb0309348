package services

import (
	"context"
	"sync"
)

// MockSubscriber is a Subscriber for handler tests.
type MockSubscriber struct {
	mu            sync.Mutex
	SubscribeFunc func(ctx context.Context, email, source string) error
	Calls         []SubscribeCall
}

type SubscribeCall struct {
	Email  string
	Source string
}

// Ensure MockSubscriber implements Subscriber interface
var _ Subscriber = (*MockSubscriber)(nil)

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, email, source string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, SubscribeCall{Email: email, Source: source})
	fn := m.SubscribeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, email, source)
	}
	return nil
}

func (m *MockSubscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
