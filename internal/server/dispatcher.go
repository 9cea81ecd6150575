package server

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/croupier/internal/game"
)

// Dispatcher tokenizes chat text and routes it into the engine. It only
// recognizes keywords; wager validation, phase checks and settlement all
// stay behind the session manager and dice command.
type Dispatcher struct {
	sessions *game.SessionManager
	dice     *game.Dice
	ledger   game.Ledger
	notify   game.Notifier
	logger   *log.Logger
}

// NewDispatcher wires the command surface.
func NewDispatcher(sessions *game.SessionManager, dice *game.Dice, ledger game.Ledger, notify game.Notifier, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		sessions: sessions,
		dice:     dice,
		ledger:   ledger,
		notify:   notify,
		logger:   logger.WithPrefix("dispatch"),
	}
}

// Handle routes one line of chat. Bang-prefixed lines are commands; bare
// text is forwarded to the player's active round, where stray messages are
// ignored without comment.
func (d *Dispatcher) Handle(player, text string) {
	player = game.Normalize(player)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	if !strings.HasPrefix(trimmed, "!") {
		if d.sessions.InRound(player) {
			d.sessions.SubmitAction(player, trimmed)
		}
		return
	}

	fields := strings.Fields(trimmed)
	switch strings.ToLower(fields[0]) {
	case "!blackjack", "!bj":
		if len(fields) != 2 {
			d.notify.SendPrivate(player, "usage: !blackjack <wager>")
			return
		}
		// Failures have already been announced by the session manager.
		_ = d.sessions.StartRound(player, fields[1])

	case "!roll":
		if len(fields) != 2 {
			d.notify.SendPrivate(player, "usage: !roll <wager>")
			return
		}
		_ = d.dice.Roll(player, fields[1])

	case "!balance":
		d.notify.SendPrivate(player, fmt.Sprintf("you have %d points.", d.ledger.Balance(player)))

	case "!help":
		d.notify.SendPrivate(player, helpText())

	default:
		// Unknown commands belong to other bots; stay out of the way.
		d.logger.Debug("ignoring unknown command", "player", player, "command", fields[0])
	}
}

func helpText() string {
	return strings.Join([]string{
		"croupier commands:",
		"  !blackjack <wager> — start a blackjack round (then: hit, stay, 1, 11)",
		"  !roll <wager>      — one dice roll against the house",
		"  !balance           — your point balance",
	}, "\n")
}
