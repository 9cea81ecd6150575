package game

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/croupier/internal/deck"
	"github.com/lox/croupier/internal/randutil"
)

var (
	// ErrRoundInProgress is returned when a player already has an active round.
	ErrRoundInProgress = errors.New("game: round already in progress")

	// ErrInvalidWager is returned for non-numeric, non-positive or
	// out-of-bound wagers.
	ErrInvalidWager = errors.New("game: invalid wager")

	// ErrInsufficientBalance is returned when the ledger balance is below
	// the wager.
	ErrInsufficientBalance = errors.New("game: insufficient balance")

	// ErrNotEligible is returned when the ledger refuses the player
	// (unknown account or excluded identity).
	ErrNotEligible = errors.New("game: player not eligible to wager")
)

// SessionConfig bounds wagers and sets the idle timeout for active rounds.
type SessionConfig struct {
	MinWager    int
	MaxWager    int
	IdleTimeout time.Duration
}

// DefaultSessionConfig returns the reference settings: wagers 1 to 1000,
// three-minute idle timeout.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MinWager:    1,
		MaxWager:    1000,
		IdleTimeout: 3 * time.Minute,
	}
}

// entry pairs an active round with its idle timer. The timer handle is held
// explicitly so every removal path can cancel it; a stale timer must never
// fire into a slot that has been reused for a new round.
type entry struct {
	round *Round
	timer *quartz.Timer
}

// SessionManager multiplexes the concurrently active rounds, one per player
// identity. It owns the registry, enforces wager bounds and balance checks,
// arms an idle timer per round, and resolves every user-facing failure into
// a chat message so no error escapes to the transport.
type SessionManager struct {
	mu      sync.Mutex
	rounds  map[string]*entry
	cfg     SessionConfig
	ledger  Ledger
	notify  Notifier
	clock   quartz.Clock
	rng     *rand.Rand
	logger  *log.Logger
	newDeck func(*rand.Rand) drawer
}

// NewSessionManager constructs a session manager with an empty registry.
func NewSessionManager(cfg SessionConfig, ledger Ledger, notify Notifier, clock quartz.Clock, rng *rand.Rand, logger *log.Logger) *SessionManager {
	return &SessionManager{
		rounds:  make(map[string]*entry),
		cfg:     cfg,
		ledger:  ledger,
		notify:  notify,
		clock:   clock,
		rng:     rng,
		logger:  logger.WithPrefix("session"),
		newDeck: func(r *rand.Rand) drawer { return deck.New(r) },
	}
}

// Normalize maps a chat identity to its registry key.
func Normalize(player string) string {
	return strings.ToLower(strings.TrimSpace(player))
}

// InRound reports whether the player currently has an active round. The
// dispatcher uses it to decide whether bare chat text is a game action.
func (sm *SessionManager) InRound(player string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.rounds[Normalize(player)]
	return ok
}

// Active returns the number of active rounds.
func (sm *SessionManager) Active() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.rounds)
}

// StartRound validates the wager and the player's standing, then deals a new
// round and arms its idle timer. Failures are announced in chat and also
// returned for callers that care (tests, mostly).
func (sm *SessionManager) StartRound(player, wagerText string) error {
	player = Normalize(player)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.rounds[player]; ok {
		sm.notify.Send(fmt.Sprintf("%s: you already have a game going — finish it first.", player))
		return ErrRoundInProgress
	}

	wager, err := strconv.Atoi(wagerText)
	if err != nil || wager < sm.cfg.MinWager || wager > sm.cfg.MaxWager {
		sm.notify.Send(fmt.Sprintf("%s: wager must be a number between %d and %d.", player, sm.cfg.MinWager, sm.cfg.MaxWager))
		return ErrInvalidWager
	}

	if !sm.ledger.HasAccount(player) || !sm.ledger.Eligible(player) {
		sm.notify.Send(fmt.Sprintf("%s: you're not set up to wager points here.", player))
		return ErrNotEligible
	}

	if sm.ledger.Balance(player) < wager {
		sm.notify.Send(fmt.Sprintf("%s: you only have %d points.", player, sm.ledger.Balance(player)))
		return ErrInsufficientBalance
	}

	// Each round gets its own deck and rng; decks are never shared.
	round := NewRound(player, wager, sm.newDeck(randutil.New(sm.rng.Int64())), sm.logger)
	opening, err := round.Deal()
	if err != nil {
		// Fresh decks cannot run out during the deal; treat it as fatal for
		// this round only.
		sm.logger.Error("deal failed", "player", player, "error", err)
		sm.notify.Send(fmt.Sprintf("%s: couldn't deal — round abandoned, wager untouched.", player))
		return err
	}

	e := &entry{round: round}
	e.timer = sm.armTimer(player, round.ID)
	sm.rounds[player] = e

	sm.logger.Info("round started", "player", player, "wager", wager)
	sm.notify.Send(opening)
	return nil
}

// SubmitAction routes tokenized chat text into the player's active round.
// Text from players with no active round is ignored. Every handled action,
// including a rejected ace choice, resets the idle timer.
func (sm *SessionManager) SubmitAction(player, text string) {
	player = Normalize(player)
	action := strings.ToLower(strings.TrimSpace(text))

	sm.mu.Lock()
	defer sm.mu.Unlock()

	e, ok := sm.rounds[player]
	if !ok {
		return
	}

	var (
		message string
		err     error
	)

	switch e.round.Phase() {
	case PhaseAwaitingAce:
		switch action {
		case "1":
			message, err = e.round.ChooseAce(1)
		case "11":
			message, err = e.round.ChooseAce(11)
		default:
			// Rejected input still counts as activity.
			sm.resetTimer(e, player)
			sm.notify.Send(fmt.Sprintf("%s: just \"1\" or \"11\" for the ace.", player))
			return
		}
	case PhasePlayerTurn:
		switch action {
		case "hit":
			message, err = e.round.Hit()
		case "stay":
			message, err = e.round.Stay()
		default:
			// Not a legal action for this phase; stay quiet.
			return
		}
	default:
		return
	}

	if err != nil {
		if errors.Is(err, deck.ErrEmptyDeck) {
			sm.abandonLocked(player, e)
			return
		}
		// Illegal actions are dropped without comment.
		sm.logger.Debug("action rejected", "player", player, "action", action, "error", err)
		return
	}

	if e.round.Phase() == PhaseSettled {
		sm.settleLocked(player, e, message)
		return
	}

	sm.resetTimer(e, player)
	sm.notify.Send(message)
}

// Shutdown cancels every idle timer and clears the registry. In-progress
// rounds are transient and simply discarded.
func (sm *SessionManager) Shutdown() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for player, e := range sm.rounds {
		e.timer.Stop()
		delete(sm.rounds, player)
	}
}

// armTimer schedules the idle forfeit for a specific round instance. The
// round ID check in the callback keeps a late firing from touching a newer
// round in the same slot.
func (sm *SessionManager) armTimer(player, roundID string) *quartz.Timer {
	return sm.clock.AfterFunc(sm.cfg.IdleTimeout, func() {
		sm.idleTimeout(player, roundID)
	})
}

// resetTimer clears the previous timer before arming a new one, so exactly
// one timer is ever live per round.
func (sm *SessionManager) resetTimer(e *entry, player string) {
	e.timer.Stop()
	e.timer = sm.armTimer(player, e.round.ID)
}

// idleTimeout forcibly settles a stalled round as a half-wager loss.
func (sm *SessionManager) idleTimeout(player, roundID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	e, ok := sm.rounds[player]
	if !ok || e.round.ID != roundID {
		return
	}

	e.round.Forfeit()
	delta := e.round.Delta()
	sm.ledger.Adjust(player, delta)
	delete(sm.rounds, player)

	sm.logger.Info("round forfeited on idle timeout", "player", player, "delta", delta)
	sm.notify.Send(fmt.Sprintf("%s fell asleep at the table — game over, %d points forfeited.", player, -delta))
}

// settleLocked applies the settlement delta and releases the round.
// Caller holds sm.mu.
func (sm *SessionManager) settleLocked(player string, e *entry, message string) {
	e.timer.Stop()
	delta := e.round.Delta()
	sm.ledger.Adjust(player, delta)
	delete(sm.rounds, player)

	sm.logger.Info("round settled",
		"player", player,
		"outcome", e.round.Outcome(),
		"delta", delta,
		"balance", sm.ledger.Balance(player))
	sm.notify.Send(message)
}

// abandonLocked releases a round whose deck ran dry. The wager never moved,
// so there is nothing to refund. Caller holds sm.mu.
func (sm *SessionManager) abandonLocked(player string, e *entry) {
	e.timer.Stop()
	e.round.Abandon()
	delete(sm.rounds, player)

	sm.logger.Error("deck exhausted mid-round, abandoning", "player", player)
	sm.notify.Send(fmt.Sprintf("%s: the deck ran out — round abandoned, your wager is untouched.", player))
}
