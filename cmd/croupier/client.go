package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/lox/croupier/internal/server"
)

// ClientCmd is a line-oriented chat client for talking to the bot: stdin
// lines go to the room, room traffic prints styled to stdout.
type ClientCmd struct {
	URL  string `help:"Server websocket URL" default:"ws://localhost:8080/ws"`
	Name string `arg:"" help:"Player name to join as"`
}

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	privateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
)

func (cmd *ClientCmd) Run() error {
	conn, _, err := websocket.DefaultDialer.Dial(cmd.URL, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cmd.URL, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(&server.Message{Type: server.MessageTypeJoin, Player: cmd.Name}); err != nil {
		return fmt.Errorf("joining: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		for {
			var msg server.Message
			if err := conn.ReadJSON(&msg); err != nil {
				done <- err
				return
			}
			printMessage(&msg)
		}
	}()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if err := conn.WriteJSON(&server.Message{Type: server.MessageTypeChat, Text: line}); err != nil {
				done <- err
				return
			}
		}
		done <- scanner.Err()
	}()

	return <-done
}

func printMessage(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeInfo:
		fmt.Println(infoStyle.Render("* " + msg.Text))
	case server.MessageTypePrivate:
		fmt.Println(privateStyle.Render("(you) " + msg.Text))
	case server.MessageTypeError:
		fmt.Println(errorStyle.Render("! " + msg.Text))
	case server.MessageTypeChat:
		fmt.Printf("%s %s\n", nameStyle.Render("<"+msg.Player+">"), msg.Text)
	}
}
