package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/croupier/internal/game"
)

// accountOpener is the slice of the ledger the transport needs: new joiners
// get an account before they can wager.
type accountOpener interface {
	Open(player string)
}

// Server is the WebSocket chat room the bot lives in. It implements
// game.Notifier: engine announcements broadcast to the room, private
// messages go to a single player's connection.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	byPlayer    map[string]*Connection
	dispatcher  *Dispatcher
	accounts    accountOpener
	logger      *log.Logger
	mu          sync.RWMutex
	httpServer  *http.Server
	ctx         context.Context
	cancel      context.CancelFunc
}

var _ game.Notifier = (*Server)(nil)

// New creates a chat server. SetDispatcher must be called before Start.
func New(addr string, accounts accountOpener, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Chat clients connect from anywhere.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		byPlayer:    make(map[string]*Connection),
		accounts:    accounts,
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetDispatcher wires the command dispatcher. Separate from New because the
// dispatcher needs the server as its Notifier.
func (s *Server) SetDispatcher(d *Dispatcher) {
	s.dispatcher = d
}

// Start serves WebSocket and health endpoints until Stop is called.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	s.logger.Info("starting chat server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down and closes every connection.
func (s *Server) Stop() error {
	s.cancel()

	if s.httpServer != nil {
		_ = s.httpServer.Shutdown(context.Background())
	}

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// handleWebSocket upgrades a request and starts the connection pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s, s.logger)

	s.mu.Lock()
	s.connections[client] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("client connected", "total", total)

	client.Start()

	go func() {
		<-client.ctx.Done()
		s.dropConnection(client)
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// dropConnection removes a closed connection from the registries. The
// player's in-progress round, if any, stays active until its idle timer
// settles it.
func (s *Server) dropConnection(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c)
	if player := c.Player(); player != "" && s.byPlayer[player] == c {
		delete(s.byPlayer, player)
	}
	total := len(s.connections)
	s.mu.Unlock()

	_ = c.Close()
	s.logger.Info("client disconnected", "player", c.Player(), "total", total)
}

// join registers a named player: opens a ledger account and announces them.
func (s *Server) join(c *Connection, name string) {
	player := game.Normalize(name)

	s.mu.Lock()
	if old, ok := s.byPlayer[player]; ok && old != c {
		// Latest connection wins; the old one is orphaned.
		_ = old.Close()
	}
	s.byPlayer[player] = c
	s.mu.Unlock()

	s.accounts.Open(player)
	s.logger.Info("player joined", "player", player)
	s.Send(fmt.Sprintf("%s joined the room.", player))
}

// chat broadcasts a player's line and hands it to the dispatcher.
func (s *Server) chat(player, text string) {
	s.broadcast(&Message{Type: MessageTypeChat, Player: game.Normalize(player), Text: text})
	if s.dispatcher != nil {
		s.dispatcher.Handle(player, text)
	}
}

// Send broadcasts a bot announcement to the whole room.
func (s *Server) Send(message string) {
	s.broadcast(&Message{Type: MessageTypeInfo, Text: message})
}

// SendPrivate delivers a bot message to one player, if connected.
func (s *Server) SendPrivate(player, message string) {
	s.mu.RLock()
	conn, ok := s.byPlayer[game.Normalize(player)]
	s.mu.RUnlock()

	if !ok {
		s.logger.Debug("private message for offline player dropped", "player", player)
		return
	}
	if err := conn.Send(&Message{Type: MessageTypePrivate, Player: game.Normalize(player), Text: message}); err != nil {
		s.logger.Error("failed to send private message", "player", player, "error", err)
	}
}

func (s *Server) broadcast(msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if err := conn.Send(msg); err != nil {
			s.logger.Error("failed to send message", "player", conn.Player(), "error", err)
		}
	}
}
