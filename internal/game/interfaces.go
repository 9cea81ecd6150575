package game

import "github.com/lox/croupier/internal/deck"

// Ledger is the point store shared by every wagering command. Adjust must be
// atomic and clamp the resulting balance at zero; the engine never issues a
// read-modify-write across two calls.
type Ledger interface {
	// Balance returns the player's current point balance.
	Balance(player string) int
	// HasAccount reports whether the player is known to the ledger.
	HasAccount(player string) bool
	// Adjust applies delta to the player's balance, clamping the result at
	// zero so a balance can never go negative.
	Adjust(player string, delta int)
	// Eligible reports whether the player may wager at all (guest and
	// duplicate-account exclusions live behind this).
	Eligible(player string) bool
}

// Notifier delivers game announcements to the chat room.
type Notifier interface {
	Send(message string)
	SendPrivate(player, message string)
}

// drawer is the card source a round consumes. *deck.Deck satisfies it; tests
// substitute scripted sequences.
type drawer interface {
	Draw() (*deck.Card, error)
}
