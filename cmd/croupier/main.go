package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the chat-room casino bot"`
	Client  ClientCmd        `cmd:"" help:"Connect to a room as a chat client"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("croupier"),
		kong.Description("Chat-room utility bot with a blackjack table and a dice wager"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
