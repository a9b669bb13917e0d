package tfc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an in-memory Gateway that records every call in order.
type fakeGateway struct {
	workspaces map[string][]Workspace
	listErr    map[string]error
	runs       map[string][]Run
	runsErr    map[string]error
	patchErr   map[string]error
	createErr  map[string]error

	calls []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		workspaces: map[string][]Workspace{},
		listErr:    map[string]error{},
		runs:       map[string][]Run{},
		runsErr:    map[string]error{},
		patchErr:   map[string]error{},
		createErr:  map[string]error{},
	}
}

func (g *fakeGateway) ListWorkspaces(_ context.Context, org string) ([]Workspace, error) {
	g.calls = append(g.calls, "list:"+org)
	return g.workspaces[org], g.listErr[org]
}

func (g *fakeGateway) ListRuns(_ context.Context, workspaceID string) ([]Run, error) {
	g.calls = append(g.calls, "runs:"+workspaceID)
	return g.runs[workspaceID], g.runsErr[workspaceID]
}

func (g *fakeGateway) EnableAutoApply(_ context.Context, workspaceID string) error {
	g.calls = append(g.calls, "patch:"+workspaceID)
	return g.patchErr[workspaceID]
}

func (g *fakeGateway) CreateDestroyRun(_ context.Context, workspaceID, _ string) (string, error) {
	g.calls = append(g.calls, "post:"+workspaceID)
	if err := g.createErr[workspaceID]; err != nil {
		return "", err
	}
	return "run-" + workspaceID, nil
}

func newTestSweeper(t *testing.T, gw Gateway, orgs []Organization) *Sweeper {
	t.Helper()
	s, err := NewSweeper(gw, orgs, nil, WithDelay(0))
	require.NoError(t, err)
	return s
}

func TestRunSweepEmptyOrganization(t *testing.T) {
	gw := newFakeGateway()
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Empty(t, summary.Outcomes)
	assert.Equal(t, []string{"list:org1"}, gw.calls)
}

func TestRunSweepExcludedWorkspaceIsNeverTouched(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{{ID: "ws-1", Name: "w1"}}
	s := newTestSweeper(t, gw, []Organization{
		{Name: "org1", Exclude: []string{"w1"}},
	})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, ResultExcluded, summary.Outcomes[0].Result)
	// No run-history, patch, or post calls for the excluded workspace.
	assert.Equal(t, []string{"list:org1"}, gw.calls)
}

func TestRunSweepSkipsAlreadyDestroyedWorkspace(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{{ID: "ws-1", Name: "w1"}}
	gw.runs["ws-1"] = []Run{
		{ID: "run-a", Status: "planned", IsDestroy: false},
		{ID: "run-b", Status: "applied", IsDestroy: true},
		{ID: "run-c", Status: "applied", IsDestroy: false},
	}
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, ResultAlreadyDestroyed, summary.Outcomes[0].Result)
	assert.Equal(t, []string{"list:org1", "runs:ws-1"}, gw.calls)
}

func TestRunSweepTriggersDestroyPatchThenPost(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{{ID: "ws-1", Name: "w1"}}
	gw.runs["ws-1"] = []Run{
		{ID: "run-a", Status: "applied", IsDestroy: false},
	}
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, ResultDestroyTriggered, summary.Outcomes[0].Result)
	assert.Equal(t, "run-ws-1", summary.Outcomes[0].RunID)
	assert.Equal(t,
		[]string{"list:org1", "runs:ws-1", "patch:ws-1", "post:ws-1"}, gw.calls)
}

func TestRunSweepNoAppliedRunsStillTriggersDestroy(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{{ID: "ws-1", Name: "w1"}}
	gw.runs["ws-1"] = []Run{
		{ID: "run-a", Status: "planned", IsDestroy: false},
	}
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, ResultDestroyTriggered, summary.Outcomes[0].Result)
}

func TestRunSweepAutoApplyFailureDoesNotBlockDestroy(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{{ID: "ws-1", Name: "w1"}}
	gw.runs["ws-1"] = []Run{{Status: "applied", IsDestroy: false}}
	gw.patchErr["ws-1"] = errors.New("forbidden")
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, ResultDestroyTriggered, summary.Outcomes[0].Result)
	assert.Contains(t, gw.calls, "post:ws-1")
}

func TestRunSweepFailureIsolation(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{
		{ID: "ws-a", Name: "wa"},
		{ID: "ws-b", Name: "wb"},
	}
	gw.runs["ws-a"] = []Run{{Status: "applied", IsDestroy: false}}
	gw.runs["ws-b"] = []Run{{Status: "applied", IsDestroy: false}}
	gw.createErr["ws-a"] = errors.New("500 internal server error")
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, ResultFailed, summary.Outcomes[0].Result)
	assert.Error(t, summary.Outcomes[0].Err)
	// Workspace B must still be fully processed after A's failure.
	assert.Equal(t, ResultDestroyTriggered, summary.Outcomes[1].Result)
	assert.Equal(t, "run-ws-b", summary.Outcomes[1].RunID)
}

func TestRunSweepRunHistoryFailureIsContained(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{
		{ID: "ws-a", Name: "wa"},
		{ID: "ws-b", Name: "wb"},
	}
	gw.runsErr["ws-a"] = errors.New("timeout")
	gw.runs["ws-b"] = []Run{{Status: "applied", IsDestroy: true}}
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, ResultFailed, summary.Outcomes[0].Result)
	assert.Equal(t, ResultAlreadyDestroyed, summary.Outcomes[1].Result)
	// The failed history check never escalates to a mutation.
	assert.NotContains(t, gw.calls, "patch:ws-a")
	assert.NotContains(t, gw.calls, "post:ws-a")
}

func TestRunSweepPartialListingStillProcessed(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{{ID: "ws-1", Name: "w1"}}
	gw.listErr["org1"] = errors.New("page 2 fetch failed")
	gw.runs["ws-1"] = []Run{{Status: "applied", IsDestroy: false}}
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, ResultDestroyTriggered, summary.Outcomes[0].Result)
}

func TestRunSweepOrganizationIsolation(t *testing.T) {
	gw := newFakeGateway()
	gw.listErr["org1"] = errors.New("unauthorized")
	gw.workspaces["org2"] = []Workspace{{ID: "ws-2", Name: "w2"}}
	gw.runs["ws-2"] = []Run{{Status: "applied", IsDestroy: false}}
	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}, {Name: "org2"}})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, "org2", summary.Outcomes[0].Organization)
	assert.Equal(t, ResultDestroyTriggered, summary.Outcomes[0].Result)
}

func TestRunSweepEndToEndScenario(t *testing.T) {
	// Org1 has w1 and w2, with w2 excluded. w1's latest applied run was a
	// normal apply, so it gets exactly one PATCH followed by one POST;
	// nothing at all references w2.
	gw := newFakeGateway()
	gw.workspaces["Org1"] = []Workspace{
		{ID: "1", Name: "w1"},
		{ID: "2", Name: "w2"},
	}
	gw.runs["1"] = []Run{{Status: "applied", IsDestroy: false}}
	s := newTestSweeper(t, gw, []Organization{
		{Name: "Org1", Exclude: []string{"w2"}},
	})

	summary, err := s.RunSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t,
		[]string{"list:Org1", "runs:1", "patch:1", "post:1"}, gw.calls)
	assert.Equal(t, 1, summary.Count(ResultDestroyTriggered))
	assert.Equal(t, 1, summary.Count(ResultExcluded))
	for _, call := range gw.calls {
		assert.NotEqual(t, "runs:2", call)
		assert.NotEqual(t, "patch:2", call)
		assert.NotEqual(t, "post:2", call)
	}
}

func TestRunSweepContextCancellation(t *testing.T) {
	gw := newFakeGateway()
	gw.workspaces["org1"] = []Workspace{{ID: "ws-1", Name: "w1"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestSweeper(t, gw, []Organization{{Name: "org1"}})
	_, err := s.RunSweep(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSweeperRequiresGateway(t *testing.T) {
	_, err := NewSweeper(nil, nil, nil)
	assert.Error(t, err)
}

func TestSummaryCount(t *testing.T) {
	summary := &Summary{}
	for i := 0; i < 3; i++ {
		summary.Outcomes = append(summary.Outcomes, Outcome{
			Workspace: fmt.Sprintf("w%d", i),
			Result:    ResultDestroyTriggered,
		})
	}
	summary.Outcomes = append(summary.Outcomes, Outcome{Result: ResultFailed})

	assert.Equal(t, 3, summary.Count(ResultDestroyTriggered))
	assert.Equal(t, 1, summary.Count(ResultFailed))
	assert.Equal(t, 0, summary.Count(ResultExcluded))
}
