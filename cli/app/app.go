package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/statetrie/cli/statedb"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "StateTrie\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a StateTrie instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "statetrie"
	ctl.Version = config.Version
	ctl.Usage = "Authenticated state trie tool"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, statedb.NewCommands()...)
	return ctl
}
