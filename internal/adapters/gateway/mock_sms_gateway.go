package gateway

import (
	"context"
	"fmt"
	"sos-alert-service/internal/domain"
	"sos-alert-service/internal/ports"
	"sync"
)

// MockSMSGateway records every message and fails for scripted recipients.
type MockSMSGateway struct {
	mu       sync.Mutex
	failures map[domain.NormalizedPhoneNumber]error
	sent     []ports.SMSMessage
	seq      int
}

func NewMockSMSGateway() *MockSMSGateway {
	return &MockSMSGateway{failures: make(map[domain.NormalizedPhoneNumber]error)}
}

// Make sends to the given number fail with err.
func (g *MockSMSGateway) FailFor(to domain.NormalizedPhoneNumber, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[to] = err
}

func (g *MockSMSGateway) Send(ctx context.Context, msg ports.SMSMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sent = append(g.sent, msg)
	if err, ok := g.failures[msg.To]; ok {
		return "", err
	}

	g.seq++
	return fmt.Sprintf("SM%032d", g.seq), nil
}

// Messages passed to Send so far, in call order.
func (g *MockSMSGateway) Sent() []ports.SMSMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ports.SMSMessage(nil), g.sent...)
}
