package cartclient

import "sync"

// IdentityStore persists the anonymous session identifier in one browsing
// context scope. The SDK ships an in-memory implementation; embedders supply
// cookie- or storage-backed ones with the persistence their platform allows.
type IdentityStore interface {
	// Load returns the stored identifier, or "" when absent. Errors are
	// treated as absence; a blocked store degrades, it never aborts.
	Load() (string, error)
	Store(id string) error
}

// MemoryStore is an in-memory IdentityStore. It gives same-process
// continuity only, which is also what makes it the test double of choice.
type MemoryStore struct {
	mu    sync.Mutex
	value string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *MemoryStore) Store(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = id
	return nil
}
