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

package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/aercore/aqengine/pkg/db"
	"github.com/aercore/aqengine/pkg/detector"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
	"github.com/aercore/aqengine/pkg/simulator"
	"github.com/aercore/aqengine/pkg/state"
)

// SimulationService generates synthetic readings for every active
// simulation-path room. Readings that do not move past the coarse thresholds
// are discarded without touching storage.
type SimulationService struct {
	rooms     db.RoomStore
	generator *simulator.Generator
	detector  *detector.Detector
	updater   *state.Updater
	logger    logger.Logger

	inFlight sync.Map // room ID -> struct{}
}

// NewSimulationService wires the simulation pass.
func NewSimulationService(rooms db.RoomStore, gen *simulator.Generator, det *detector.Detector, updater *state.Updater, log logger.Logger) *SimulationService {
	return &SimulationService{
		rooms:     rooms,
		generator: gen,
		detector:  det,
		updater:   updater,
		logger:    log,
	}
}

func (s *SimulationService) Name() string { return "simulation" }

// Run processes all active simulation rooms concurrently and waits for every
// room to finish. A room still being processed from a previous pass is
// skipped, never queued.
func (s *SimulationService) Run(ctx context.Context) error {
	rooms, err := s.rooms.ListActive(ctx, models.DataSourceSimulation)
	if err != nil {
		return fmt.Errorf("failed to list simulation rooms: %w", err)
	}

	var wg sync.WaitGroup

	for _, room := range rooms {
		if _, loaded := s.inFlight.LoadOrStore(room.ID, struct{}{}); loaded {
			s.logger.Debug().
				Str("room_id", room.ID.String()).
				Msg("Skipping room, previous update still in flight")

			continue
		}

		// Generation shares one rng; keep it on this goroutine.
		reading := s.generator.SimulateAnomaly(s.generator.Generate(simulator.RoomTypeFromName(room.Name)))

		wg.Add(1)

		go func(room *models.Room, reading models.Reading) {
			defer wg.Done()
			defer s.inFlight.Delete(room.ID)

			s.applyIfSignificant(ctx, room, &reading)
		}(room, reading)
	}

	wg.Wait()

	return nil
}

func (s *SimulationService) applyIfSignificant(ctx context.Context, room *models.Room, reading *models.Reading) {
	if !s.detector.IsSignificant(room.CurrentReading(), reading) {
		return
	}

	if err := s.updater.Apply(ctx, room, reading, models.ProvenanceSimulation, ""); err != nil {
		s.logger.Error().
			Err(err).
			Str("room_id", room.ID.String()).
			Str("room_name", room.Name).
			Msg("Failed to apply simulated reading")
	}
}
