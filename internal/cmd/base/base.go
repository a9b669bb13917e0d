package base

import (
	"bytes"
	"flag"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is the base for all CLI commands.
type Command struct {
	// Log is the logger for the command.
	Log hclog.Logger

	// UI is the terminal UI for the command.
	UI cli.Ui
}

// FlagSet wraps the standard flag set with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a FlagSet from a standard flag set.
func NewFlagSet(fs *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: fs}
}

// Help renders the flag set's options for inclusion in command help text.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	f.SetOutput(&buf)
	f.PrintDefaults()
	return "\nOptions:\n\n" + buf.String()
}
