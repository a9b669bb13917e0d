package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/damienjburks/ops-seal/internal/cmd/base"
	"github.com/damienjburks/ops-seal/internal/cmd/commands/server"
	"github.com/damienjburks/ops-seal/internal/cmd/commands/sweep"
	versioncmd "github.com/damienjburks/ops-seal/internal/cmd/commands/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"server": func() (cli.Command, error) {
			return &server.Command{Command: baseCommand}, nil
		},
		"sweep": func() (cli.Command, error) {
			return &sweep.Command{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncmd.Command{Command: baseCommand}, nil
		},
	}
}
