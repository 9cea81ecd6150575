package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/croupier/internal/randutil"
)

func TestNewDeckHas52Cards(t *testing.T) {
	d := New(randutil.New(42))
	assert.Equal(t, 52, d.Remaining())
}

func TestDrawExhaustsDeckWithoutRepeats(t *testing.T) {
	d := New(randutil.New(42))

	seen := make(map[string]bool)
	for i := 0; i < 52; i++ {
		card, err := d.Draw()
		require.NoError(t, err, "draw %d should succeed", i+1)

		key := card.String()
		require.False(t, seen[key], "card %s drawn twice", key)
		seen[key] = true
	}

	assert.Equal(t, 0, d.Remaining())

	_, err := d.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck, "53rd draw must fail")
}

func TestDrawDecrementsRemaining(t *testing.T) {
	d := New(randutil.New(1))

	for i := 51; i >= 40; i-- {
		_, err := d.Draw()
		require.NoError(t, err)
		assert.Equal(t, i, d.Remaining())
	}
}

func TestDrawOrderVariesBySeed(t *testing.T) {
	d1 := New(randutil.New(1))
	d2 := New(randutil.New(2))

	same := true
	for i := 0; i < 10; i++ {
		c1, err := d1.Draw()
		require.NoError(t, err)
		c2, err := d2.Draw()
		require.NoError(t, err)
		if c1.Suit != c2.Suit || c1.Rank != c2.Rank {
			same = false
		}
	}
	assert.False(t, same, "different seeds should produce different draw orders")
}
