package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/comitanigiacomo/kanso-tracker/internal/config"
)

var cli struct {
	Serve        serveCmd        `cmd:"" default:"withargs" help:"Run the HTTP API."`
	HashPasscode hashPasscodeCmd `cmd:"" help:"Print the bcrypt hash of a passcode for AUTH_PASSCODE_HASH."`
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := kong.Parse(&cli,
		kong.Name("kanso-tracker"),
		kong.Description("Personal habit and event tracker API."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
