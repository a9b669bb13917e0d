package version

import (
	"github.com/damienjburks/ops-seal/internal/cmd/base"
	"github.com/damienjburks/ops-seal/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: ops-seal version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
