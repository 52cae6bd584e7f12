// Package worker runs the background job loop consuming leaderboard
// refresh jobs from the Redis queue.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/talentstage/backend/internal/leaderboard"
	"github.com/talentstage/backend/pkg/queue"
)

// Processor consumes jobs and rebuilds contest leaderboards.
type Processor struct {
	board  *leaderboard.Cache
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewProcessor creates a leaderboard refresh processor.
func NewProcessor(board *leaderboard.Cache, jobs *queue.Queue, logger *zap.Logger) *Processor {
	return &Processor{board: board, jobs: jobs, logger: logger}
}

// Run blocks on the queue until ctx is cancelled. Each job is handled with
// its own timeout; failed jobs are retried by the queue until the DLQ takes
// them.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("leaderboard worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("leaderboard worker stopped")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}
		p.handle(ctx, job)
	}
}

func (p *Processor) handle(ctx context.Context, job *queue.Job) {
	if job.Type != queue.JobTypeLeaderboardRefresh {
		p.logger.Warn("unknown job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
		return
	}
	var payload queue.LeaderboardRefreshPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Warn("invalid job payload", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := p.board.Rebuild(jobCtx, payload.ContestID); err != nil {
		p.logger.Error("rebuild leaderboard",
			zap.String("contest_id", payload.ContestID.String()),
			zap.Int("attempt", job.Attempt),
			zap.Error(err))
		_ = p.jobs.Retry(ctx, job)
		return
	}
}
