/*
 * Copyright 2025 Aercore Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package scheduler runs the acquisition passes on fixed intervals. Each
// pass fans out over its rooms or devices and waits for all of them before
// the next tick is honored.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
)

// Service is one acquisition pass. Run processes every room or device it is
// responsible for and returns when all of them are done.
type Service interface {
	Name() string
	Run(ctx context.Context) error
}

// Status is a snapshot of a loop's scheduling state.
type Status struct {
	Name     string          `json:"name"`
	Running  bool            `json:"running"`
	Interval models.Duration `json:"interval"`
	LastRun  time.Time       `json:"last_run,omitzero"`
	NextRun  time.Time       `json:"next_run,omitzero"`
}

// Loop drives a Service on a fixed interval. Start runs an immediate first
// pass, then ticks. Stop waits for an in-flight pass to finish. Both are
// idempotent.
type Loop struct {
	svc      Service
	interval time.Duration
	clock    Clock
	logger   logger.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
	nextRun time.Time
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewLoop wires a loop around a service. A nil clock uses wall time.
func NewLoop(svc Service, interval time.Duration, clock Clock, log logger.Logger) *Loop {
	if clock == nil {
		clock = NewClock()
	}

	return &Loop{
		svc:      svc,
		interval: interval,
		clock:    clock,
		logger:   log,
	}
}

// Start launches the loop. Calling Start on a running loop is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()

	if l.running {
		l.mu.Unlock()
		l.logger.Debug().Str("service", l.svc.Name()).Msg("Scheduler loop already running")

		return
	}

	l.running = true
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	l.logger.Info().
		Str("service", l.svc.Name()).
		Dur("interval", l.interval).
		Msg("Starting scheduler loop")

	l.wg.Add(1)

	go l.run(ctx, done)
}

// Stop halts the loop and waits for any in-flight pass.
func (l *Loop) Stop() {
	l.mu.Lock()

	if !l.running {
		l.mu.Unlock()
		return
	}

	l.running = false
	close(l.done)
	l.mu.Unlock()

	l.wg.Wait()

	l.logger.Info().Str("service", l.svc.Name()).Msg("Scheduler loop stopped")
}

// ForceRun triggers one pass immediately. The tick schedule is not shifted;
// only lastRun is updated.
func (l *Loop) ForceRun(ctx context.Context) error {
	start := l.clock.Now()

	err := l.svc.Run(ctx)

	l.mu.Lock()
	l.lastRun = start
	l.mu.Unlock()

	return err
}

// Status reports the loop's current scheduling state.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Status{
		Name:     l.svc.Name(),
		Running:  l.running,
		Interval: models.Duration(l.interval),
		LastRun:  l.lastRun,
		NextRun:  l.nextRun,
	}
}

func (l *Loop) run(ctx context.Context, done <-chan struct{}) {
	defer l.wg.Done()

	if err := l.runOnce(ctx); err != nil {
		l.logger.Error().Err(err).Str("service", l.svc.Name()).Msg("Scheduler pass failed")
	}

	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.Chan():
			if err := l.runOnce(ctx); err != nil {
				l.logger.Error().Err(err).Str("service", l.svc.Name()).Msg("Scheduler pass failed")
			}
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) error {
	start := l.clock.Now()

	err := l.svc.Run(ctx)

	l.mu.Lock()
	l.lastRun = start
	l.nextRun = start.Add(l.interval)
	l.mu.Unlock()

	return err
}
