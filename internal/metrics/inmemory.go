package metrics

import "sync"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AccountsRegistered uint64
	LoginSuccesses     uint64
	LoginFailures      uint64
	Transfers          map[string]uint64
	ChatRelays         map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                 sync.Mutex
	accountsRegistered uint64
	loginSuccesses     uint64
	loginFailures      uint64
	transfers          map[string]uint64
	chatRelays         map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		transfers:  make(map[string]uint64),
		chatRelays: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		AccountsRegistered: m.accountsRegistered,
		LoginSuccesses:     m.loginSuccesses,
		LoginFailures:      m.loginFailures,
		Transfers:          make(map[string]uint64, len(m.transfers)),
		ChatRelays:         make(map[string]uint64, len(m.chatRelays)),
	}
	for k, v := range m.transfers {
		s.Transfers[k] = v
	}
	for k, v := range m.chatRelays {
		s.ChatRelays[k] = v
	}
	return s
}

// IncAccountRegistered increments the registration counter.
func (m *InMemoryRecorder) IncAccountRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountsRegistered++
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginSuccesses++
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginFailures++
}

// IncTransfer increments the transfer counter for the outcome.
func (m *InMemoryRecorder) IncTransfer(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[outcome]++
}

// IncChatRelay increments the relay counter for the outcome.
func (m *InMemoryRecorder) IncChatRelay(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatRelays[outcome]++
}
