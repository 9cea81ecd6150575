package server

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/croupier/internal/game"
	"github.com/lox/croupier/internal/ledger"
	"github.com/lox/croupier/internal/randutil"
)

type recordingNotifier struct {
	mu      sync.Mutex
	room    []string
	private map[string][]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{private: make(map[string][]string)}
}

func (r *recordingNotifier) Send(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.room = append(r.room, message)
}

func (r *recordingNotifier) SendPrivate(player, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.private[player] = append(r.private[player], message)
}

func (r *recordingNotifier) privateFor(player string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.private[player]...)
}

type dispatchFixture struct {
	dispatcher *Dispatcher
	sessions   *game.SessionManager
	points     *ledger.Memory
	notify     *recordingNotifier
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	logger := log.New(io.Discard)

	points := ledger.NewMemory(500, logger)
	points.Open("alice")
	notify := newRecordingNotifier()

	sessions := game.NewSessionManager(game.DefaultSessionConfig(), points, notify, quartz.NewMock(t), randutil.New(3), logger)
	dice := game.NewDice(game.DefaultDiceConfig(), points, notify, randutil.New(4), logger)

	return &dispatchFixture{
		dispatcher: NewDispatcher(sessions, dice, points, notify, logger),
		sessions:   sessions,
		points:     points,
		notify:     notify,
	}
}

func TestDispatchStartsBlackjackRound(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!blackjack 100")
	assert.True(t, f.sessions.InRound("alice"))
	require.NotEmpty(t, f.notify.room)
	assert.Contains(t, f.notify.room[0], "wagers 100")
}

func TestDispatchShortAliasWorks(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!bj 50")
	assert.True(t, f.sessions.InRound("alice"))
}

func TestDispatchBlackjackUsage(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!blackjack")
	assert.False(t, f.sessions.InRound("alice"))
	require.NotEmpty(t, f.notify.privateFor("alice"))
	assert.Contains(t, f.notify.privateFor("alice")[0], "usage")
}

func TestDispatchRoutesRoundActions(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!blackjack 100")
	require.True(t, f.sessions.InRound("alice"))

	// "11" resolves a pending ace if there is one and is ignored
	// otherwise; "stay" then always settles the round.
	f.dispatcher.Handle("alice", "11")
	f.dispatcher.Handle("alice", "stay")

	assert.False(t, f.sessions.InRound("alice"))
	assert.Contains(t, []int{400, 500, 600}, f.points.Balance("alice"))
}

func TestDispatchBareTextWithoutRoundIgnored(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "hit")
	f.dispatcher.Handle("alice", "hello room")

	assert.Empty(t, f.notify.room)
	assert.Empty(t, f.notify.privateFor("alice"))
}

func TestDispatchRoll(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!roll 100")
	assert.Contains(t, []int{400, 600}, f.points.Balance("alice"))
	require.NotEmpty(t, f.notify.room)
	assert.Contains(t, f.notify.room[0], "rolls")
}

func TestDispatchRollUsage(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!roll")
	require.NotEmpty(t, f.notify.privateFor("alice"))
	assert.Contains(t, f.notify.privateFor("alice")[0], "usage")
}

func TestDispatchBalance(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!balance")
	require.NotEmpty(t, f.notify.privateFor("alice"))
	assert.Contains(t, f.notify.privateFor("alice")[0], "500")
}

func TestDispatchHelp(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!help")
	require.NotEmpty(t, f.notify.privateFor("alice"))
	assert.Contains(t, f.notify.privateFor("alice")[0], "!blackjack")
}

func TestDispatchUnknownCommandsStayQuiet(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("alice", "!weather tomorrow")
	f.dispatcher.Handle("alice", "!trivia")

	assert.Empty(t, f.notify.room)
	assert.Empty(t, f.notify.privateFor("alice"))
}

func TestDispatchNormalizesPlayer(t *testing.T) {
	f := newDispatchFixture(t)

	f.dispatcher.Handle("ALICE", "!blackjack 100")
	assert.True(t, f.sessions.InRound("alice"))
}
