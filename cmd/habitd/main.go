// Command habitd runs the habit tracker HTTP API.
//
//	@title			Habit Tracker API
//	@version		1.0
//	@description	In-memory habit tracking service.
//	@BasePath		/api
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var CLI struct {
	Version kong.VersionFlag `help:"Print version and exit."`

	Serve ServeCmd `cmd:"" help:"Run the HTTP API." default:"withargs"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habitd"),
		kong.Description("Habit tracker backend"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
