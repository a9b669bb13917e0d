package tfc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// appliedRunStatus is the run status that marks a completed apply.
const appliedRunStatus = "applied"

// Organization names a Terraform Cloud organization to sweep, along with
// the workspaces in it that must never be touched.
type Organization struct {
	Name    string
	Exclude []string
}

// excluded reports whether the named workspace is on the exclusion list.
func (o Organization) excluded(workspaceName string) bool {
	for _, name := range o.Exclude {
		if name == workspaceName {
			return true
		}
	}
	return false
}

// Result classifies what the sweep did with a single workspace.
type Result string

const (
	// ResultExcluded means the workspace is on the organization's
	// exclusion list and was not queried or mutated.
	ResultExcluded Result = "skipped-excluded"

	// ResultAlreadyDestroyed means the workspace's most recent applied run
	// was already a destroy, so no new run was queued.
	ResultAlreadyDestroyed Result = "skipped-already-destroyed"

	// ResultDestroyTriggered means a destroy run was queued.
	ResultDestroyTriggered Result = "destroy-triggered"

	// ResultFailed means the workspace could not be processed; the error
	// is recorded on the outcome and the sweep continued.
	ResultFailed Result = "failed"
)

// Outcome records what happened to one workspace during a sweep pass.
type Outcome struct {
	Organization string `json:"organization"`
	WorkspaceID  string `json:"workspace_id"`
	Workspace    string `json:"workspace"`
	Result       Result `json:"result"`
	RunID        string `json:"run_id,omitempty"`
	Err          error  `json:"-"`
}

// Summary is the observable record of one sweep pass.
type Summary struct {
	PassID   string        `json:"pass_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Outcomes []Outcome     `json:"outcomes"`
}

// Count returns the number of outcomes with the given result.
func (s *Summary) Count(result Result) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Result == result {
			n++
		}
	}
	return n
}

// Sweeper walks every configured organization and queues a destroy run for
// each workspace whose infrastructure is still standing, honoring
// per-organization exclusion lists. Processing is strictly sequential:
// organizations in configured order, workspaces in listing order, with a
// fixed pause between workspaces as a self-imposed rate limit.
//
// A failure on one workspace or organization never aborts the rest of the
// pass; it is recorded as an outcome and the sweep moves on.
type Sweeper struct {
	gateway Gateway
	orgs    []Organization
	delay   time.Duration
	log     hclog.Logger
}

// SweeperOption adjusts Sweeper construction.
type SweeperOption func(*Sweeper)

// WithDelay overrides the pause between workspaces. Intended for tests;
// the production default is one second.
func WithDelay(d time.Duration) SweeperOption {
	return func(s *Sweeper) { s.delay = d }
}

// NewSweeper creates a Sweeper over the given gateway and organizations.
func NewSweeper(gateway Gateway, orgs []Organization, log hclog.Logger, opts ...SweeperOption) (*Sweeper, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	s := &Sweeper{
		gateway: gateway,
		orgs:    orgs,
		delay:   1 * time.Second,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunSweep performs one full pass over all configured organizations and
// returns a summary of every workspace outcome. The only errors returned
// are top-level ones (context cancellation); per-workspace and per-page
// failures are contained and recorded in the summary.
func (s *Sweeper) RunSweep(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		PassID:  uuid.New().String(),
		Started: time.Now(),
	}
	log := s.log.With("pass_id", summary.PassID)

	log.Info("starting sweep pass", "organizations", len(s.orgs))
	for _, org := range s.orgs {
		if err := s.sweepOrganization(ctx, org, summary, log); err != nil {
			log.Error("sweep pass aborted", "error", err)
			summary.Duration = time.Since(summary.Started)
			return summary, err
		}
	}

	summary.Duration = time.Since(summary.Started)
	log.Info("sweep pass finished",
		"duration", summary.Duration,
		"excluded", summary.Count(ResultExcluded),
		"already_destroyed", summary.Count(ResultAlreadyDestroyed),
		"destroy_triggered", summary.Count(ResultDestroyTriggered),
		"failed", summary.Count(ResultFailed),
	)
	return summary, nil
}

// sweepOrganization processes every workspace in one organization. The
// returned error is non-nil only for context cancellation.
func (s *Sweeper) sweepOrganization(ctx context.Context, org Organization, summary *Summary, log hclog.Logger) error {
	log = log.With("organization", org.Name)
	log.Info("processing organization")

	// Pagination is exhausted before any per-workspace work. A page-fetch
	// failure leaves us with partial results, not a full abort.
	workspaces, err := s.gateway.ListWorkspaces(ctx, org.Name)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("failed to list workspaces, proceeding with partial results",
			"error", err, "collected", len(workspaces))
	}
	if len(workspaces) == 0 {
		log.Warn("no workspaces found")
		return nil
	}

	for _, ws := range workspaces {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		outcome := s.sweepWorkspace(ctx, org, ws, log)
		summary.Outcomes = append(summary.Outcomes, outcome)

		// Flat per-workspace delay to stay under the remote API's rate
		// limits, applied regardless of outcome.
		if err := s.pause(ctx); err != nil {
			return err
		}
	}

	log.Info("finished processing organization")
	return nil
}

// sweepWorkspace runs the fetch-decide-act sequence for one workspace. All
// failures are contained in the returned outcome.
func (s *Sweeper) sweepWorkspace(ctx context.Context, org Organization, ws Workspace, log hclog.Logger) Outcome {
	outcome := Outcome{
		Organization: org.Name,
		WorkspaceID:  ws.ID,
		Workspace:    ws.Name,
	}
	log = log.With("workspace", ws.Name, "workspace_id", ws.ID)

	if org.excluded(ws.Name) {
		log.Info("skipping excluded workspace")
		outcome.Result = ResultExcluded
		return outcome
	}

	log.Info("processing workspace")

	wasDestroy, err := s.lastApplyWasDestroy(ctx, ws.ID, log)
	if err != nil {
		log.Error("failed to inspect run history", "error", err)
		outcome.Result = ResultFailed
		outcome.Err = err
		return outcome
	}
	if wasDestroy {
		log.Info("most recent apply was already a destroy, skipping")
		outcome.Result = ResultAlreadyDestroyed
		return outcome
	}

	// Auto-apply enablement is best-effort; a failure here does not block
	// the destroy-run attempt.
	if err := s.gateway.EnableAutoApply(ctx, ws.ID); err != nil {
		log.Error("failed to enable auto-apply", "error", err)
	}

	runID, err := s.gateway.CreateDestroyRun(ctx, ws.ID, ws.Name)
	if err != nil {
		log.Error("failed to create destroy run", "error", err)
		outcome.Result = ResultFailed
		outcome.Err = err
		return outcome
	}

	outcome.Result = ResultDestroyTriggered
	outcome.RunID = runID
	return outcome
}

// lastApplyWasDestroy scans the workspace's run history, in the order the
// API returned it, for the first run with status "applied" and reports its
// is-destroy flag. No applied run at all is treated as "not a destroy".
func (s *Sweeper) lastApplyWasDestroy(ctx context.Context, workspaceID string, log hclog.Logger) (bool, error) {
	runs, err := s.gateway.ListRuns(ctx, workspaceID)
	if err != nil {
		return false, err
	}

	for _, run := range runs {
		if run.Status == appliedRunStatus {
			return run.IsDestroy, nil
		}
	}

	log.Warn("no applied runs found, treating workspace as not destroyed")
	return false, nil
}

// pause sleeps for the configured inter-workspace delay, honoring context
// cancellation.
func (s *Sweeper) pause(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}
