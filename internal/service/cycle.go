package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job names shared by the scheduler, the CLI and the admin triggers.
const (
	JobRumination    = "rumination"
	JobIdentity      = "identity"
	JobConsolidation = "identity-consolidation"
	JobBridge        = "identity-bridge"
)

// CycleStep is the outcome of one phase inside a cycle.
type CycleStep struct {
	Name   string `json:"name"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CycleResult records every phase of a cycle. A failing phase does not stop
// the phases after it.
type CycleResult struct {
	RunID      string      `json:"run_id"`
	Job        string      `json:"job"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Steps      []CycleStep `json:"steps"`
}

func (r *CycleResult) Failed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Error != "" {
			n++
		}
	}
	return n
}

// Cycles composes the phase services into the scheduled pipelines.
type Cycles struct {
	userID        string
	rumination    *RuminationService
	dream         *DreamService
	scholar       *ScholarService
	consolidation *IdentityConsolidationService
	bridge        *IdentityBridgeService
	logger        *zap.Logger
}

func NewCycles(
	userID string,
	rumination *RuminationService,
	dream *DreamService,
	scholar *ScholarService,
	consolidation *IdentityConsolidationService,
	bridge *IdentityBridgeService,
	logger *zap.Logger,
) *Cycles {
	return &Cycles{
		userID:        userID,
		rumination:    rumination,
		dream:         dream,
		scholar:       scholar,
		consolidation: consolidation,
		bridge:        bridge,
		logger:        logger,
	}
}

// Rumination runs dream → scholar → digest → deliver.
func (c *Cycles) Rumination(ctx context.Context) (*CycleResult, error) {
	run := c.begin(JobRumination)

	c.step(ctx, run, "dream", func(ctx context.Context) (any, error) {
		return c.dream.Generate(ctx, c.userID)
	})
	c.step(ctx, run, "scholar", func(ctx context.Context) (any, error) {
		return c.scholar.Study(ctx, c.userID)
	})
	c.step(ctx, run, "digest", func(ctx context.Context) (any, error) {
		return c.rumination.Digest(ctx, c.userID)
	})
	c.step(ctx, run, "deliver", func(ctx context.Context) (any, error) {
		return c.rumination.Deliver(ctx, c.userID)
	})

	return c.finish(run), nil
}

// Identity runs consolidation → bridge.
func (c *Cycles) Identity(ctx context.Context) (*CycleResult, error) {
	run := c.begin(JobIdentity)
	c.step(ctx, run, "consolidation", func(ctx context.Context) (any, error) {
		return c.consolidation.Run(ctx)
	})
	c.step(ctx, run, "bridge", func(ctx context.Context) (any, error) {
		return c.bridge.Sync(ctx)
	})
	return c.finish(run), nil
}

func (c *Cycles) Consolidation(ctx context.Context) (*CycleResult, error) {
	run := c.begin(JobConsolidation)
	c.step(ctx, run, "consolidation", func(ctx context.Context) (any, error) {
		return c.consolidation.Run(ctx)
	})
	return c.finish(run), nil
}

func (c *Cycles) Bridge(ctx context.Context) (*CycleResult, error) {
	run := c.begin(JobBridge)
	c.step(ctx, run, "bridge", func(ctx context.Context) (any, error) {
		return c.bridge.Sync(ctx)
	})
	return c.finish(run), nil
}

func (c *Cycles) begin(job string) *CycleResult {
	run := &CycleResult{
		RunID:     uuid.NewString(),
		Job:       job,
		StartedAt: time.Now().UTC(),
		Steps:     []CycleStep{},
	}
	c.logger.Info("cycle started", zap.String("job", job), zap.String("run_id", run.RunID))
	return run
}

func (c *Cycles) step(ctx context.Context, run *CycleResult, name string, fn func(context.Context) (any, error)) {
	if err := ctx.Err(); err != nil {
		run.Steps = append(run.Steps, CycleStep{Name: name, Error: err.Error()})
		return
	}

	res, err := fn(ctx)
	st := CycleStep{Name: name, Result: res}
	if err != nil {
		c.logger.Warn("cycle step failed",
			zap.String("job", run.Job),
			zap.String("run_id", run.RunID),
			zap.String("step", name),
			zap.Error(err))
		st.Error = err.Error()
	}
	run.Steps = append(run.Steps, st)
}

func (c *Cycles) finish(run *CycleResult) *CycleResult {
	run.FinishedAt = time.Now().UTC()
	c.logger.Info("cycle finished",
		zap.String("job", run.Job),
		zap.String("run_id", run.RunID),
		zap.Int("steps", len(run.Steps)),
		zap.Int("failed", run.Failed()),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))
	return run
}
