package game

import (
	"context"
	rand "math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/croupier/internal/deck"
	"github.com/lox/croupier/internal/ledger"
	"github.com/lox/croupier/internal/randutil"
)

type fakeNotifier struct {
	mu      sync.Mutex
	room    []string
	private map[string][]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{private: make(map[string][]string)}
}

func (f *fakeNotifier) Send(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room = append(f.room, message)
}

func (f *fakeNotifier) SendPrivate(player, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.private[player] = append(f.private[player], message)
}

func (f *fakeNotifier) lastRoom() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.room) == 0 {
		return ""
	}
	return f.room[len(f.room)-1]
}

// sessionFixture wires a session manager over scripted decks, a mock clock
// and a real in-memory ledger.
type sessionFixture struct {
	sm     *SessionManager
	points *ledger.Memory
	notify *fakeNotifier
	clock  *quartz.Mock
	decks  []*scriptedDeck
}

func newSessionFixture(t *testing.T, decks ...*scriptedDeck) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		points: ledger.NewMemory(500, testLogger()),
		notify: newFakeNotifier(),
		clock:  quartz.NewMock(t),
		decks:  decks,
	}
	f.points.Open("alice")

	f.sm = NewSessionManager(DefaultSessionConfig(), f.points, f.notify, f.clock, randutil.New(7), testLogger())
	f.sm.newDeck = func(*rand.Rand) drawer {
		require.NotEmpty(t, f.decks, "test script ran out of decks")
		d := f.decks[0]
		f.decks = f.decks[1:]
		return d
	}
	return f
}

func winningDeck() *scriptedDeck {
	// Player K+Q (20) vs dealer K+9 (19): staying wins.
	return &scriptedDeck{cards: []*deck.Card{
		card(deck.King, deck.Spades), card(deck.Queen, deck.Diamonds),
		card(deck.King, deck.Hearts), card(deck.Nine, deck.Clubs),
	}}
}

func TestStartRoundAndWin(t *testing.T) {
	f := newSessionFixture(t, winningDeck())

	require.NoError(t, f.sm.StartRound("Alice", "100"))
	assert.True(t, f.sm.InRound("alice"))
	assert.Equal(t, 500, f.points.Balance("alice"), "wager only moves at settlement")

	f.sm.SubmitAction("alice", "stay")

	assert.False(t, f.sm.InRound("alice"))
	assert.Equal(t, 600, f.points.Balance("alice"))
	assert.Contains(t, f.notify.lastRoom(), "win")
}

func TestStartRoundNormalizesIdentity(t *testing.T) {
	f := newSessionFixture(t, winningDeck())

	require.NoError(t, f.sm.StartRound("  ALICE ", "100"))
	assert.True(t, f.sm.InRound("alice"))

	err := f.sm.StartRound("Alice", "50")
	assert.ErrorIs(t, err, ErrRoundInProgress)
}

func TestStartRoundSecondRoundRejected(t *testing.T) {
	f := newSessionFixture(t, winningDeck())

	require.NoError(t, f.sm.StartRound("alice", "100"))
	assert.ErrorIs(t, f.sm.StartRound("alice", "100"), ErrRoundInProgress)
	assert.Equal(t, 1, f.sm.Active())
}

func TestStartRoundInvalidWagers(t *testing.T) {
	f := newSessionFixture(t)

	for _, wager := range []string{"abc", "", "0", "-5", "1001", "1.5"} {
		err := f.sm.StartRound("alice", wager)
		assert.ErrorIs(t, err, ErrInvalidWager, "wager %q", wager)
	}
	assert.Equal(t, 0, f.sm.Active())
}

func TestStartRoundInsufficientBalance(t *testing.T) {
	f := newSessionFixture(t)

	err := f.sm.StartRound("alice", "501")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 0, f.sm.Active())
}

func TestStartRoundUnknownOrExcludedPlayers(t *testing.T) {
	f := newSessionFixture(t)

	assert.ErrorIs(t, f.sm.StartRound("stranger", "100"), ErrNotEligible)

	f.points.Open("bob")
	f.points.Exclude("bob")
	assert.ErrorIs(t, f.sm.StartRound("bob", "100"), ErrNotEligible)
}

func TestIdleTimeoutForfeitsHalfWager(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, winningDeck(), winningDeck())

	require.NoError(t, f.sm.StartRound("alice", "100"))

	f.clock.Advance(3 * time.Minute).MustWait(ctx)

	assert.False(t, f.sm.InRound("alice"))
	assert.Equal(t, 450, f.points.Balance("alice"), "half the wager, not all of it")
	assert.Contains(t, f.notify.lastRoom(), "forfeited")

	// The slot is free again.
	require.NoError(t, f.sm.StartRound("alice", "100"))
}

func TestIdleTimeoutFiresOnlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, winningDeck())

	require.NoError(t, f.sm.StartRound("alice", "100"))
	f.clock.Advance(3 * time.Minute).MustWait(ctx)
	require.Equal(t, 450, f.points.Balance("alice"))

	// More time passing must not debit again.
	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 450, f.points.Balance("alice"))
}

func TestActionsResetIdleTimer(t *testing.T) {
	ctx := context.Background()
	// Player K+5 (15), dealer K+9; hit a deuce to 17, then sit idle.
	f := newSessionFixture(t, &scriptedDeck{cards: []*deck.Card{
		card(deck.King, deck.Spades), card(deck.Five, deck.Diamonds),
		card(deck.King, deck.Hearts), card(deck.Nine, deck.Clubs),
		card(deck.Two, deck.Clubs),
	}})

	require.NoError(t, f.sm.StartRound("alice", "100"))

	f.clock.Advance(2 * time.Minute).MustWait(ctx)
	f.sm.SubmitAction("alice", "hit")
	require.True(t, f.sm.InRound("alice"))

	// Two more minutes is four since the deal but only two since the hit.
	f.clock.Advance(2 * time.Minute).MustWait(ctx)
	assert.True(t, f.sm.InRound("alice"), "timer must reset on accepted actions")

	f.clock.Advance(1 * time.Minute).MustWait(ctx)
	assert.False(t, f.sm.InRound("alice"))
	assert.Equal(t, 450, f.points.Balance("alice"))
}

func TestAceRepromptKeepsRoundAlive(t *testing.T) {
	// Player A+9 vs dealer K+9: choose 11 for 20 and stay to win.
	f := newSessionFixture(t, &scriptedDeck{cards: []*deck.Card{
		card(deck.Ace, deck.Spades), card(deck.Nine, deck.Diamonds),
		card(deck.King, deck.Hearts), card(deck.Nine, deck.Clubs),
	}})

	require.NoError(t, f.sm.StartRound("alice", "100"))

	f.sm.SubmitAction("alice", "banana")
	assert.True(t, f.sm.InRound("alice"))
	assert.Contains(t, f.notify.lastRoom(), `"1" or "11"`)

	f.sm.SubmitAction("alice", "hit")
	assert.True(t, f.sm.InRound("alice"), "hit is not a legal ace choice")

	f.sm.SubmitAction("alice", "11")
	f.sm.SubmitAction("alice", "stay")

	assert.False(t, f.sm.InRound("alice"))
	assert.Equal(t, 600, f.points.Balance("alice"), "20 beats the dealer's 19")
}

func TestStrayTextDuringPlayerTurnIgnored(t *testing.T) {
	f := newSessionFixture(t, winningDeck())

	require.NoError(t, f.sm.StartRound("alice", "100"))
	before := len(f.notify.room)

	f.sm.SubmitAction("alice", "11")
	f.sm.SubmitAction("alice", "what's the weather")

	assert.True(t, f.sm.InRound("alice"))
	assert.Len(t, f.notify.room, before, "stray messages settle nothing and say nothing")
}

func TestSubmitActionWithoutRoundIgnored(t *testing.T) {
	f := newSessionFixture(t)
	f.sm.SubmitAction("alice", "hit")
	assert.Empty(t, f.notify.room)
}

func TestEmptyDeckAbandonsRound(t *testing.T) {
	// Dealer sits at 16 and must draw, but the scripted deck is dry.
	f := newSessionFixture(t, &scriptedDeck{cards: []*deck.Card{
		card(deck.King, deck.Spades), card(deck.Queen, deck.Diamonds),
		card(deck.King, deck.Hearts), card(deck.Six, deck.Clubs),
	}})

	require.NoError(t, f.sm.StartRound("alice", "100"))
	f.sm.SubmitAction("alice", "stay")

	assert.False(t, f.sm.InRound("alice"))
	assert.Equal(t, 500, f.points.Balance("alice"), "wager untouched on abandonment")
	assert.Contains(t, f.notify.lastRoom(), "abandoned")
}

func TestPlayerBustSettlesImmediately(t *testing.T) {
	f := newSessionFixture(t, &scriptedDeck{cards: []*deck.Card{
		card(deck.King, deck.Spades), card(deck.Queen, deck.Diamonds),
		card(deck.King, deck.Hearts), card(deck.Nine, deck.Clubs),
		card(deck.Five, deck.Hearts),
	}})

	require.NoError(t, f.sm.StartRound("alice", "100"))
	f.sm.SubmitAction("alice", "hit")

	assert.False(t, f.sm.InRound("alice"))
	assert.Equal(t, 400, f.points.Balance("alice"))
	assert.Contains(t, f.notify.lastRoom(), "busts")
}

func TestBalanceNeverGoesNegative(t *testing.T) {
	f := newSessionFixture(t, &scriptedDeck{cards: []*deck.Card{
		card(deck.King, deck.Spades), card(deck.Eight, deck.Diamonds),
		card(deck.Ten, deck.Hearts), card(deck.Nine, deck.Clubs),
	}})

	// Drain alice to exactly the wager, then lose it all.
	f.points.Adjust("alice", -400)
	require.Equal(t, 100, f.points.Balance("alice"))

	require.NoError(t, f.sm.StartRound("alice", "100"))
	f.sm.SubmitAction("alice", "stay")

	assert.Equal(t, 0, f.points.Balance("alice"))
}

func TestConcurrentPlayersAreIndependent(t *testing.T) {
	f := newSessionFixture(t, winningDeck(), winningDeck())
	f.points.Open("bob")

	require.NoError(t, f.sm.StartRound("alice", "100"))
	require.NoError(t, f.sm.StartRound("bob", "200"))
	assert.Equal(t, 2, f.sm.Active())

	f.sm.SubmitAction("alice", "stay")
	assert.Equal(t, 600, f.points.Balance("alice"))
	assert.True(t, f.sm.InRound("bob"), "alice's settlement must not touch bob")

	f.sm.SubmitAction("bob", "stay")
	assert.Equal(t, 700, f.points.Balance("bob"))
	assert.Equal(t, 0, f.sm.Active())
}

func TestShutdownClearsRegistry(t *testing.T) {
	f := newSessionFixture(t, winningDeck(), winningDeck())
	f.points.Open("bob")

	require.NoError(t, f.sm.StartRound("alice", "100"))
	require.NoError(t, f.sm.StartRound("bob", "100"))

	f.sm.Shutdown()
	assert.Equal(t, 0, f.sm.Active())
	assert.Equal(t, 500, f.points.Balance("alice"), "shutdown discards rounds without settling")
}

func TestErrorMessagesReachTheRoom(t *testing.T) {
	f := newSessionFixture(t)

	_ = f.sm.StartRound("alice", "nope")
	require.NotEmpty(t, f.notify.room)
	assert.True(t, strings.Contains(f.notify.lastRoom(), "between"), "wager bounds spelled out")

	_ = f.sm.StartRound("alice", "501")
	assert.Contains(t, f.notify.lastRoom(), "only have")
}
