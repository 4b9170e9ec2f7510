package rl

import (
	"context"
	"fmt"
	"sync"

	"github.com/zeu5/rlpath/types"
	"golang.org/x/sync/errgroup"
)

// Job is one independent training run. Jobs running together must not share
// an ExperimentState.
type Job struct {
	Name           string
	Trainer        *Trainer
	Epochs         int
	MaximumActions int
}

// JobResult is the report of a finished job
type JobResult struct {
	Name   string
	Report types.TrainerReport
	Err    error
}

// RunParallel runs the jobs with at most limit of them at once (no limit
// when limit <= 0). Results come back in job order. The first failing job
// cancels the rest and its error is returned.
func RunParallel(ctx context.Context, jobs []Job, limit int, onDone func(JobResult)) ([]JobResult, error) {
	seen := make(map[*types.ExperimentState]string, len(jobs))
	for _, j := range jobs {
		if other, ok := seen[j.Trainer.ExperimentState()]; ok {
			return nil, fmt.Errorf("jobs %s and %s share an experiment state", other, j.Name)
		}
		seen[j.Trainer.ExperimentState()] = j.Name
	}

	g, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	results := make([]JobResult, len(jobs))
	var mu sync.Mutex
	for i, job := range jobs {
		g.Go(func() error {
			report, err := job.Trainer.Run(groupCtx, job.Epochs, job.MaximumActions)
			res := JobResult{Name: job.Name, Report: report, Err: err}
			results[i] = res
			if onDone != nil {
				mu.Lock()
				onDone(res)
				mu.Unlock()
			}
			if err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}
