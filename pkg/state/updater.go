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

// Package state applies accepted readings to room state, history and the
// broadcast gateway.
package state

import (
	"context"
	"fmt"
	"time"

	"github.com/aercore/aqengine/pkg/broadcast"
	"github.com/aercore/aqengine/pkg/db"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
)

// DefaultRetention bounds per-room history on the simulation path.
const DefaultRetention = 7 * 24 * time.Hour

// Updater persists an accepted reading and fans out update events. The write
// order is fixed: current state first, then history, then broadcast. A failed
// state write aborts the whole update; a failed history append or prune is
// logged and does not block the broadcast.
type Updater struct {
	rooms     db.RoomStore
	history   db.HistoryStore
	gateway   broadcast.Gateway
	retention time.Duration
	logger    logger.Logger
}

// NewUpdater wires an Updater. A non-positive retention falls back to the
// 7-day default.
func NewUpdater(rooms db.RoomStore, history db.HistoryStore, gateway broadcast.Gateway, retention time.Duration, log logger.Logger) *Updater {
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Updater{
		rooms:     rooms,
		history:   history,
		gateway:   gateway,
		retention: retention,
		logger:    log,
	}
}

// Apply overwrites the room's current state with the reading, appends it to
// history, prunes aged simulation-path records and broadcasts the update.
// deviceName is empty for simulated readings.
func (u *Updater) Apply(ctx context.Context, room *models.Room, reading *models.Reading, source models.Provenance, deviceName string) error {
	room.CurrentState = models.CurrentState{
		AQI:         reading.AQI,
		PM25:        reading.PM25,
		PM10:        reading.PM10,
		CO2:         reading.CO2,
		Temperature: reading.Temperature,
		Humidity:    reading.Humidity,
		UpdatedAt:   reading.Timestamp,
	}

	if err := u.rooms.SaveCurrentState(ctx, room); err != nil {
		return fmt.Errorf("failed to save room state: %w", err)
	}

	if err := u.history.Append(ctx, models.NewHistoricalRecord(room, reading)); err != nil {
		u.logger.Warn().
			Err(err).
			Str("room_id", room.ID.String()).
			Msg("Failed to append history record")
	} else if source == models.ProvenanceSimulation {
		// Retention is enforced on the simulation path only. IoT rooms keep
		// full history, including fallback readings written while their
		// device is down.
		u.prune(ctx, room)
	}

	u.gateway.BroadcastRoomUpdate(&broadcast.RoomUpdateEvent{
		RoomID:       room.ID,
		CurrentState: room.CurrentState,
		Timestamp:    reading.Timestamp,
		Source:       source,
		DeviceName:   deviceName,
	})

	u.gateway.BroadcastDashboardUpdate(&broadcast.DashboardUpdateEvent{
		Type:         broadcast.DashboardUpdateType,
		RoomID:       room.ID,
		AQI:          reading.AQI,
		BuildingName: room.BuildingName,
		Timestamp:    reading.Timestamp,
	})

	return nil
}

func (u *Updater) prune(ctx context.Context, room *models.Room) {
	cutoff := time.Now().Add(-u.retention)

	pruned, err := u.history.DeleteOlderThan(ctx, room.ID, cutoff)
	if err != nil {
		u.logger.Warn().
			Err(err).
			Str("room_id", room.ID.String()).
			Msg("Failed to prune history")

		return
	}

	if pruned > 0 {
		u.logger.Debug().
			Int64("pruned", pruned).
			Str("room_id", room.ID.String()).
			Msg("Pruned aged history records")
	}
}
