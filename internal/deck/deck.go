package deck

import (
	"errors"
	rand "math/rand/v2"
)

// ErrEmptyDeck is returned when drawing from an exhausted deck. A blackjack
// round never draws more than about twenty cards, so hitting this indicates
// a logic error rather than normal play.
var ErrEmptyDeck = errors.New("deck: no cards remaining")

// Deck is a single 52-card population drawn without replacement. Draw picks
// a remaining card uniformly at random, so the slice order never matters.
// A deck is owned by exactly one round and discarded with it.
type Deck struct {
	cards []*Card
	rng   *rand.Rand
}

// New creates a full 52-card deck using the provided random source.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]*Card, 0, 52),
		rng:   rng,
	}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	return d
}

// Draw removes and returns one remaining card, chosen uniformly at random.
func (d *Deck) Draw() (*Card, error) {
	n := len(d.cards)
	if n == 0 {
		return nil, ErrEmptyDeck
	}
	i := d.rng.IntN(n)
	card := d.cards[i]
	d.cards[i] = d.cards[n-1]
	d.cards = d.cards[:n-1]
	return card, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
