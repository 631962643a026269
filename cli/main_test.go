package main

import (
	"testing"
)

func TestCLIVersion(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "statetrie", "--version")
	e.checkNextLine(t, "^StateTrie$")
	e.checkNextLine(t, "^Version: ")
	e.checkNextLine(t, "^GoVersion: ")
	e.checkEOF(t)
}
