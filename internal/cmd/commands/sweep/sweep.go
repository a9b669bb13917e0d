package sweep

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/damienjburks/ops-seal/internal/cmd/base"
	"github.com/damienjburks/ops-seal/internal/config"
	"github.com/damienjburks/ops-seal/internal/sweep"
	"github.com/damienjburks/ops-seal/pkg/secrets"
	"github.com/damienjburks/ops-seal/pkg/tfc"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run one destroy-sweep pass and exit"
}

func (c *Command) Help() string {
	return `Usage: ops-seal sweep -config=<config file>

  This command runs a single destroy-sweep pass over the configured
  organizations without starting the API server.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("sweep", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "config.hcl",
		"Path to the configuration file",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := secrets.NewFileProvider(cfg.Secrets.Dir, c.Log.Named("secrets"))
	svc := sweep.NewService(cfg, provider, c.Log)

	summary, err := svc.Run(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("sweep failed: %v", err))
		return 1
	}

	c.UI.Info(fmt.Sprintf(
		"sweep %s finished in %s: %d destroy(s) triggered, %d already destroyed, %d excluded, %d failed",
		summary.PassID,
		summary.Duration,
		summary.Count(tfc.ResultDestroyTriggered),
		summary.Count(tfc.ResultAlreadyDestroyed),
		summary.Count(tfc.ResultExcluded),
		summary.Count(tfc.ResultFailed),
	))

	if summary.Count(tfc.ResultFailed) > 0 {
		return 1
	}
	return 0
}
