package server

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Pool runs searches on a fixed number of workers so that concurrent
// requests do not oversubscribe the CPU.
type Pool struct {
	workers int
	jobs    chan func()
}

func NewPool(workers int) *Pool {
	return &Pool{workers: workers, jobs: make(chan func())}
}

// Run starts the workers and blocks until ctx is done.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case job := <-p.jobs:
					job()
				}
			}
		})
	}
	log.Debug().Int("workers", p.workers).Msg("pool-started")
	err := g.Wait()
	log.Debug().Msg("pool-stopped")
	return err
}

// Submit hands job to an idle worker, waiting for one to free up. It
// returns ctx's error if ctx ends first; the job is not run in that case.
func (p *Pool) Submit(ctx context.Context, job func()) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
