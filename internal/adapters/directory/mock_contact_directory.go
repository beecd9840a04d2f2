package directory

import (
	"context"
	"sos-alert-service/internal/domain"
	"sync"
)

// In-memory ContactDirectory for tests and local runs. It counts lookups
// so tests can assert that no call was made.
type MockContactDirectory struct {
	mu       sync.Mutex
	contacts map[string][]domain.Contact
	err      error
	calls    int
}

func NewMockContactDirectory(byUser map[string][]domain.Contact) *MockContactDirectory {
	m := make(map[string][]domain.Contact, len(byUser))
	for id, cs := range byUser {
		m[id] = append([]domain.Contact(nil), cs...)
	}
	return &MockContactDirectory{contacts: m}
}

// Make every subsequent lookup fail with err.
func (m *MockContactDirectory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockContactDirectory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockContactDirectory) ResolveContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Contact{}, m.contacts[userID]...), nil
}
