package storefront

import "sync"

// Credentials stores the bearer token between calls
type Credentials interface {
	Token() (string, bool)
	SetToken(token string)
	Clear()
}

// MemoryCredentials keeps the token in memory only
type MemoryCredentials struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{}
}

func (m *MemoryCredentials) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *MemoryCredentials) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *MemoryCredentials) Clear() {
	m.SetToken("")
}

func signedIn(c Credentials) bool {
	if c == nil {
		return false
	}
	_, ok := c.Token()
	return ok
}
