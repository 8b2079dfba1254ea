// Package scheduler triggers periodic refresh runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dsty-finder/internal/engine"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the orchestrator on a fixed interval.
type Scheduler struct {
	cron      *cron.Cron
	engine    *engine.Orchestrator
	interval  time.Duration
	timeout   time.Duration
	isRunning bool
}

func New(orch *engine.Orchestrator, interval, timeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 4 * time.Hour
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Scheduler{
		cron:     cron.New(),
		engine:   orch,
		interval: interval,
		timeout:  timeout,
	}
}

// Start registers the periodic refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)

	_, err := s.cron.AddFunc(spec, func() {
		log.Println("Scheduler: Starting scheduled refresh...")

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		result, err := s.engine.Refresh(ctx)
		if errors.Is(err, engine.ErrRefreshInProgress) {
			log.Println("Scheduler: Previous refresh still running, skipping this cycle")
			return
		}
		if err != nil {
			log.Printf("Scheduler: Refresh failed: %v", err)
			return
		}

		log.Printf("Scheduler: Refresh completed, %d fetched, %d new", result.Fetched, result.New)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with refresh interval %s", s.interval)

	return nil
}

// Stop stops the cron loop. A refresh already in flight finishes on its own.
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}
