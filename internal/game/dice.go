package game

import (
	"fmt"
	"math"
	rand "math/rand/v2"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
)

// DiceConfig tunes the single-shot dice wager. Skew is the exponent applied
// to the uniform roll; anything above 1 biases the percentile downward and
// gives the house its edge.
type DiceConfig struct {
	MinWager int
	MaxWager int
	Skew     float64
}

// DefaultDiceConfig returns the reference settings: wagers 1 to 1000 and a
// 1.3 skew.
func DefaultDiceConfig() DiceConfig {
	return DiceConfig{
		MinWager: 1,
		MaxWager: 1000,
		Skew:     1.3,
	}
}

// Dice is the stateless single-shot wager: one skewed roll, settled
// immediately against the same ledger contract the blackjack rounds use.
type Dice struct {
	cfg    DiceConfig
	ledger Ledger
	notify Notifier
	mu     sync.Mutex
	rng    *rand.Rand
	logger *log.Logger
}

// NewDice constructs the dice wager command.
func NewDice(cfg DiceConfig, ledger Ledger, notify Notifier, rng *rand.Rand, logger *log.Logger) *Dice {
	return &Dice{
		cfg:    cfg,
		ledger: ledger,
		notify: notify,
		rng:    rng,
		logger: logger.WithPrefix("dice"),
	}
}

// Roll validates the wager, draws one skewed percentile and settles it.
// Rolls of 51 and up win; the skew keeps those slightly rarer than half.
func (d *Dice) Roll(player, wagerText string) error {
	player = Normalize(player)

	wager, err := strconv.Atoi(wagerText)
	if err != nil || wager < d.cfg.MinWager || wager > d.cfg.MaxWager {
		d.notify.Send(fmt.Sprintf("%s: wager must be a number between %d and %d.", player, d.cfg.MinWager, d.cfg.MaxWager))
		return ErrInvalidWager
	}

	if !d.ledger.HasAccount(player) || !d.ledger.Eligible(player) {
		d.notify.Send(fmt.Sprintf("%s: you're not set up to wager points here.", player))
		return ErrNotEligible
	}

	if d.ledger.Balance(player) < wager {
		d.notify.Send(fmt.Sprintf("%s: you only have %d points.", player, d.ledger.Balance(player)))
		return ErrInsufficientBalance
	}

	roll := d.roll()
	delta := wager
	if roll <= 50 {
		delta = -wager
	}
	d.ledger.Adjust(player, delta)

	d.logger.Info("dice settled", "player", player, "roll", roll, "delta", delta)
	if delta > 0 {
		d.notify.Send(fmt.Sprintf("%s rolls %d — winner! +%d points (balance %d).", player, roll, wager, d.ledger.Balance(player)))
	} else {
		d.notify.Send(fmt.Sprintf("%s rolls %d — house takes %d points (balance %d).", player, roll, wager, d.ledger.Balance(player)))
	}
	return nil
}

// roll produces a percentile in [1,100] from a uniform draw raised to the
// configured exponent.
func (d *Dice) roll() int {
	d.mu.Lock()
	u := d.rng.Float64()
	d.mu.Unlock()

	return int(math.Pow(u, d.cfg.Skew)*100) + 1
}
