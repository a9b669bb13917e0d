// Package sweep runs destroy-sweep passes over the configured
// organizations, at most one at a time.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/damienjburks/ops-seal/internal/config"
	"github.com/damienjburks/ops-seal/pkg/secrets"
	"github.com/damienjburks/ops-seal/pkg/tfc"
)

// ErrSweepInFlight is returned when a sweep pass is already running.
// Invocations are serialized, never queued.
var ErrSweepInFlight = errors.New("a sweep is already in progress")

// Service executes sweep passes. The API token is re-resolved from the
// secret provider at the start of every pass so credential rotation takes
// effect without a restart.
type Service struct {
	cfg     *config.Config
	secrets secrets.Provider
	log     hclog.Logger

	mu sync.Mutex
}

// NewService creates a sweep service.
func NewService(cfg *config.Config, provider secrets.Provider, log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{
		cfg:     cfg,
		secrets: provider,
		log:     log,
	}
}

// Run executes one sweep pass and returns its summary. A concurrent call
// while a pass is running gets ErrSweepInFlight.
func (s *Service) Run(ctx context.Context) (*tfc.Summary, error) {
	if !s.mu.TryLock() {
		return nil, ErrSweepInFlight
	}
	defer s.mu.Unlock()

	token, ok := s.secrets.Resolve(s.cfg.Sweep.TokenSecret)
	if !ok {
		// Requests will fail as unauthenticated; that is handled like any
		// other transport error rather than refusing to start the pass.
		s.log.Warn("sweep token not found, requests will be unauthenticated",
			"secret", s.cfg.Sweep.TokenSecret)
	}

	client, err := tfc.NewClient(&tfc.Config{
		BaseURL: s.cfg.Sweep.BaseURL,
		Token:   token,
	}, s.log.Named("tfc"))
	if err != nil {
		return nil, fmt.Errorf("error creating workspace API client: %w", err)
	}

	delay := time.Duration(*s.cfg.Sweep.DelaySeconds) * time.Second
	sweeper, err := tfc.NewSweeper(
		client,
		s.cfg.SweepOrganizations(),
		s.log.Named("sweep"),
		tfc.WithDelay(delay),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating sweeper: %w", err)
	}

	return sweeper.RunSweep(ctx)
}
