// Package ledger holds the shared point balances every wagering command
// settles against. It is the only mutable state shared across the whole bot,
// so all mutation goes through a single atomic adjust-and-clamp operation.
package ledger

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Memory is an in-process ledger. Balances never persist across restarts;
// persistence would live behind the same interface if it arrived.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int
	excluded map[string]bool
	starting int
	logger   *log.Logger
}

// NewMemory creates an empty ledger. Accounts opened later start at the
// given balance.
func NewMemory(starting int, logger *log.Logger) *Memory {
	return &Memory{
		balances: make(map[string]int),
		excluded: make(map[string]bool),
		starting: starting,
		logger:   logger.WithPrefix("ledger"),
	}
}

// Open creates an account at the starting balance if the player doesn't
// have one yet.
func (m *Memory) Open(player string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[player]; !ok {
		m.balances[player] = m.starting
		m.logger.Debug("account opened", "player", player, "balance", m.starting)
	}
}

// Balance returns the player's current balance, zero for unknown players.
func (m *Memory) Balance(player string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[player]
}

// HasAccount reports whether the player has an account.
func (m *Memory) HasAccount(player string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.balances[player]
	return ok
}

// Adjust applies delta to the player's balance in one step, clamping the
// result at zero. Adjusting an unknown player is a no-op.
func (m *Memory) Adjust(player string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[player]
	if !ok {
		return
	}
	balance += delta
	if balance < 0 {
		balance = 0
	}
	m.balances[player] = balance
}

// Eligible reports whether the player may wager. Excluded identities (guest
// or duplicate accounts, flagged by whoever administers the room) always
// read false.
func (m *Memory) Eligible(player string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.excluded[player] {
		return false
	}
	_, ok := m.balances[player]
	return ok
}

// Exclude bars a player from wagering without touching their balance.
func (m *Memory) Exclude(player string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.excluded[player] = true
}
