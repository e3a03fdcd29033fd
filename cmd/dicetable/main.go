package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the dice table server"`
	Bot     BotCmd           `cmd:"" help:"Run headless bots against a table"`
	Watch   WatchCmd         `cmd:"" help:"Watch (or play) a table in the terminal"`
	Tables  TablesCmd        `cmd:"" help:"List live tables on a server"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dicetable"),
		kong.Description("Real-time multi-table dice betting server with pari-mutuel settlement"),
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
