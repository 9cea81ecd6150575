package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lox/croupier/internal/deck"
)

// Phase is the state of a round's state machine.
type Phase int

const (
	PhaseDealing Phase = iota
	PhaseAwaitingAce
	PhasePlayerTurn
	PhaseDealerTurn
	PhaseSettled
)

// String returns the phase name for logging
func (p Phase) String() string {
	switch p {
	case PhaseDealing:
		return "dealing"
	case PhaseAwaitingAce:
		return "awaiting-ace-choice"
	case PhasePlayerTurn:
		return "player-turn"
	case PhaseDealerTurn:
		return "dealer-turn"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a settled round.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLose
	OutcomePush
	OutcomeBust
	OutcomeForfeit   // idle timeout, half the wager
	OutcomeAbandoned // deck exhausted, wager returned
)

// String returns the outcome name for logging
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLose:
		return "lose"
	case OutcomePush:
		return "push"
	case OutcomeBust:
		return "bust"
	case OutcomeForfeit:
		return "forfeit"
	case OutcomeAbandoned:
		return "abandoned"
	default:
		return "none"
	}
}

var (
	// ErrIllegalAction is returned when an action does not match the round's
	// current phase. Callers ignore it silently to avoid chat spam.
	ErrIllegalAction = errors.New("game: action not legal in current phase")

	// ErrBadAceValue is returned when an ace choice is not 1 or 11. The
	// caller re-prompts without advancing the round.
	ErrBadAceValue = errors.New("game: ace value must be 1 or 11")
)

const blackjack = 21

// Round is one player's blackjack game from deal to settlement. It owns its
// deck and cards exclusively; ace values are mutated in place on the stored
// cards, never recomputed from scratch, so the "reduce the first 11-valued
// ace" rule scans hands in draw order.
type Round struct {
	ID     string
	Player string
	Wager  int

	deck        drawer
	dealerCards []*deck.Card
	playerCards []*deck.Card
	dealerTotal int
	playerTotal int
	pendingAce  *deck.Card
	phase       Phase
	outcome     Outcome
	logger      *log.Logger
}

// NewRound constructs a round in the dealing phase. Deal must be called
// before any player action.
func NewRound(player string, wager int, d drawer, logger *log.Logger) *Round {
	id := uuid.NewString()
	return &Round{
		ID:     id,
		Player: player,
		Wager:  wager,
		deck:   d,
		phase:  PhaseDealing,
		logger: logger.WithPrefix("round").With("player", player, "round", id[:8]),
	}
}

// Phase returns the round's current phase.
func (r *Round) Phase() Phase { return r.phase }

// Outcome returns the terminal outcome, or OutcomeNone before settlement.
func (r *Round) Outcome() Outcome { return r.outcome }

// PlayerTotal returns the player's current hand total.
func (r *Round) PlayerTotal() int { return r.playerTotal }

// DealerTotal returns the dealer's current hand total.
func (r *Round) DealerTotal() int { return r.dealerTotal }

// Delta returns the ledger adjustment for the round's outcome. The idle
// forfeit loses half the wager, rounded up; an abandoned round moves nothing.
func (r *Round) Delta() int {
	switch r.outcome {
	case OutcomeWin:
		return r.Wager
	case OutcomeLose, OutcomeBust:
		return -r.Wager
	case OutcomeForfeit:
		return -((r.Wager + 1) / 2)
	default:
		return 0
	}
}

// Deal draws two cards each for the player and dealer. The dealer's total is
// resolved immediately: an ace counts 11 unless the other card is a six, and
// a double-ace deal values the first ace 1 and the second 11. A player ace
// is left unvalued and the round waits for the player to pick 1 or 11.
func (r *Round) Deal() (string, error) {
	if r.phase != PhaseDealing {
		return "", ErrIllegalAction
	}

	for i := 0; i < 2; i++ {
		card, err := r.deck.Draw()
		if err != nil {
			return "", err
		}
		r.playerCards = append(r.playerCards, card)
	}
	for i := 0; i < 2; i++ {
		card, err := r.deck.Draw()
		if err != nil {
			return "", err
		}
		r.dealerCards = append(r.dealerCards, card)
	}

	r.resolveDealerDeal()

	d1, d2 := r.playerCards[0], r.playerCards[1]
	switch {
	case d1.IsAce() && d2.IsAce():
		d1.Value = 1
		d2.Value = 0
		r.pendingAce = d2
		r.phase = PhaseAwaitingAce
	case d1.IsAce():
		d1.Value = 0
		r.pendingAce = d1
		r.phase = PhaseAwaitingAce
	case d2.IsAce():
		d2.Value = 0
		r.pendingAce = d2
		r.phase = PhaseAwaitingAce
	default:
		r.phase = PhasePlayerTurn
	}
	r.recompute()

	r.logger.Debug("dealt",
		"player_hand", handString(r.playerCards),
		"dealer_up", r.dealerCards[1].String(),
		"phase", r.phase)

	if r.phase == PhaseAwaitingAce {
		return fmt.Sprintf("%s wagers %d. Your hand: %s — dealer shows 🂠 %s. You drew an ace: is it worth 1 or 11?",
			r.Player, r.Wager, handString(r.playerCards), r.dealerCards[1]), nil
	}
	return fmt.Sprintf("%s wagers %d. Your hand: %s (%d) — dealer shows 🂠 %s. hit or stay?",
		r.Player, r.Wager, handString(r.playerCards), r.playerTotal, r.dealerCards[1]), nil
}

// resolveDealerDeal fixes the dealer's two-card ace values at deal time.
func (r *Round) resolveDealerDeal() {
	a, b := r.dealerCards[0], r.dealerCards[1]
	switch {
	case a.IsAce() && b.IsAce():
		a.Value = 1
		b.Value = 11
	case a.IsAce():
		if b.Rank == deck.Six {
			a.Value = 1
		} else {
			a.Value = 11
		}
	case b.IsAce():
		if a.Rank == deck.Six {
			b.Value = 1
		} else {
			b.Value = 11
		}
	}
}

// Hit draws one card for the player. A drawn ace suspends the round until
// the player picks its value. A non-ace that pushes the total past 21
// triggers a soft-ace reduction, and busts the round if none is available.
func (r *Round) Hit() (string, error) {
	if r.phase != PhasePlayerTurn {
		return "", ErrIllegalAction
	}

	card, err := r.deck.Draw()
	if err != nil {
		return "", err
	}
	r.playerCards = append(r.playerCards, card)

	if card.IsAce() {
		card.Value = 0
		r.pendingAce = card
		r.phase = PhaseAwaitingAce
		r.recompute()
		return fmt.Sprintf("%s draws %s — an ace! Is it worth 1 or 11?", r.Player, card), nil
	}

	r.recompute()
	return r.afterPlayerCard(fmt.Sprintf("%s draws %s.", r.Player, card))
}

// ChooseAce fixes the pending ace's value and resumes the player's turn.
// Only 1 and 11 are accepted.
func (r *Round) ChooseAce(value int) (string, error) {
	if r.phase != PhaseAwaitingAce {
		return "", ErrIllegalAction
	}
	if value != 1 && value != 11 {
		return "", ErrBadAceValue
	}

	r.pendingAce.Value = value
	r.pendingAce = nil
	r.phase = PhasePlayerTurn
	r.recompute()

	// An ace taken at 11 can overflow just like a drawn card.
	return r.afterPlayerCard(fmt.Sprintf("%s counts the ace as %d.", r.Player, value))
}

// afterPlayerCard applies the post-hit rules: reduce a soft ace on overflow,
// bust when none remains, and hand over to the dealer on exactly 21.
func (r *Round) afterPlayerCard(prefix string) (string, error) {
	if r.playerTotal > blackjack {
		if reduceSoftAce(r.playerCards) {
			r.recompute()
		} else {
			r.outcome = OutcomeBust
			r.phase = PhaseSettled
			r.logger.Debug("player busts", "total", r.playerTotal)
			return fmt.Sprintf("%s %s busts at %d — dealer had %s (%d). You lose %d.",
				prefix, r.Player, r.playerTotal, handString(r.dealerCards), r.dealerTotal, r.Wager), nil
		}
	}

	if r.playerTotal == blackjack {
		summary, err := r.playDealer()
		if err != nil {
			return "", err
		}
		return prefix + " " + summary, nil
	}

	return fmt.Sprintf("%s Your hand: %s (%d). hit or stay?",
		prefix, handString(r.playerCards), r.playerTotal), nil
}

// Stay ends the player's turn and runs the dealer out.
func (r *Round) Stay() (string, error) {
	if r.phase != PhasePlayerTurn {
		return "", ErrIllegalAction
	}
	return r.playDealer()
}

// playDealer draws for the dealer until the total reaches 17 or better. A
// drawn ace counts 11 when that stays within 21, else 1. After each draw a
// total of exactly 17, or one past 21, gets a single soft-ace reduction
// before the stopping condition is rechecked, so a soft 17 keeps drawing and
// a soft bust can recover.
func (r *Round) playDealer() (string, error) {
	r.phase = PhaseDealerTurn

	for r.dealerTotal < 17 {
		card, err := r.deck.Draw()
		if err != nil {
			return "", err
		}
		if card.IsAce() {
			if r.dealerTotal+11 <= blackjack {
				card.Value = 11
			} else {
				card.Value = 1
			}
		}
		r.dealerCards = append(r.dealerCards, card)
		r.recompute()

		if r.dealerTotal == 17 || r.dealerTotal > blackjack {
			if reduceSoftAce(r.dealerCards) {
				r.recompute()
			}
		}
	}

	return r.settle(), nil
}

// settle compares the final totals and records the outcome.
func (r *Round) settle() string {
	r.phase = PhaseSettled

	var verdict string
	switch {
	case r.dealerTotal > blackjack:
		r.outcome = OutcomeWin
		verdict = fmt.Sprintf("dealer busts at %d — you win %d!", r.dealerTotal, r.Wager)
	case r.dealerTotal < r.playerTotal:
		r.outcome = OutcomeWin
		verdict = fmt.Sprintf("you win %d!", r.Wager)
	case r.dealerTotal == r.playerTotal:
		r.outcome = OutcomePush
		verdict = "push — wager returned."
	default:
		r.outcome = OutcomeLose
		verdict = fmt.Sprintf("you lose %d.", r.Wager)
	}

	r.logger.Debug("settled",
		"outcome", r.outcome,
		"player_total", r.playerTotal,
		"dealer_total", r.dealerTotal)

	return fmt.Sprintf("%s stands at %d (%s). Dealer: %s (%d) — %s",
		r.Player, r.playerTotal, handString(r.playerCards),
		handString(r.dealerCards), r.dealerTotal, verdict)
}

// Forfeit settles the round as an idle-timeout loss of half the wager,
// rounded up. Callable from any phase before settlement.
func (r *Round) Forfeit() {
	if r.phase == PhaseSettled {
		return
	}
	r.outcome = OutcomeForfeit
	r.phase = PhaseSettled
}

// Abandon settles the round with no ledger movement. Used when the deck runs
// out, which indicates a logic error rather than play.
func (r *Round) Abandon() {
	if r.phase == PhaseSettled {
		return
	}
	r.outcome = OutcomeAbandoned
	r.phase = PhaseSettled
}

// recompute refreshes both hand totals from the cards' current values.
func (r *Round) recompute() {
	r.playerTotal = handTotal(r.playerCards)
	r.dealerTotal = handTotal(r.dealerCards)
}

func handTotal(cards []*deck.Card) int {
	total := 0
	for _, c := range cards {
		total += c.Value
	}
	return total
}

// reduceSoftAce demotes the first 11-valued ace found in draw order to 1.
func reduceSoftAce(cards []*deck.Card) bool {
	for _, c := range cards {
		if c.IsAce() && c.Value == 11 {
			c.Value = 1
			return true
		}
	}
	return false
}

func handString(cards []*deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
