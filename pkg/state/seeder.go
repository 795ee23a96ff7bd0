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

package state

import (
	"context"
	"time"

	"github.com/aercore/aqengine/pkg/db"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
	"github.com/aercore/aqengine/pkg/simulator"
)

const seedStep = 15 * time.Minute

// Seeder backfills a room's history with a plausible trend series so a fresh
// deployment has charts to show before real data accumulates.
type Seeder struct {
	history   db.HistoryStore
	generator *simulator.Generator
	logger    logger.Logger
}

// NewSeeder wires a Seeder.
func NewSeeder(history db.HistoryStore, gen *simulator.Generator, log logger.Logger) *Seeder {
	return &Seeder{history: history, generator: gen, logger: log}
}

// Backfill writes one record per 15 minutes covering the past hours, ending
// now. Returns the number of records written.
func (s *Seeder) Backfill(ctx context.Context, room *models.Room, hours int) (int, error) {
	points := hours * int(time.Hour/seedStep)
	roomType := simulator.RoomTypeFromName(room.Name)

	readings := s.generator.Trend(roomType, time.Now(), points, seedStep)

	records := make([]*models.HistoricalRecord, 0, len(readings))
	for i := range readings {
		records = append(records, models.NewHistoricalRecord(room, &readings[i]))
	}

	if err := s.history.AppendBatch(ctx, records); err != nil {
		return 0, err
	}

	s.logger.Info().
		Int("records", len(records)).
		Str("room_id", room.ID.String()).
		Str("room_type", string(roomType)).
		Msg("Backfilled room history")

	return len(records), nil
}
