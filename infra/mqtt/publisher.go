package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/skyplan/core/model"
	"github.com/kilianp07/skyplan/core/publish"
)

// Publisher mirrors the core publish.Publisher interface.
type Publisher = publish.Publisher

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Messages  []publish.NightMessage
	FailNites map[string]bool
	mu        sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailNites: make(map[string]bool)}
}

// PublishNight records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishNight(_ context.Context, runID string, plan model.NightPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNites[plan.Nite] {
		return fmt.Errorf("%w: nite %s", publish.ErrPublishFailed, plan.Nite)
	}
	m.Messages = append(m.Messages, publish.NightMessage{RunID: runID, Nite: plan.Nite, Chunks: plan.Chunks})
	return nil
}

// Close is a no-op.
func (m *MockPublisher) Close() {}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []publish.NightMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publish.NightMessage(nil), m.Messages...)
}
