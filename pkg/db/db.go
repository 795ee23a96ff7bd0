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

// Package db defines the storage collaborator interfaces and their Postgres
// implementation. The engine only reads rooms/devices and writes
// current-state, device status and history; administrative CRUD lives
// elsewhere.
package db

//go:generate mockgen -destination=mock_db.go -package=db github.com/aercore/aqengine/pkg/db RoomStore,DeviceStore,HistoryStore

import (
	"context"
	"errors"
	"time"

	"github.com/aercore/aqengine/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// RoomStore exposes the room operations the engine needs.
type RoomStore interface {
	// ListActive returns active rooms updated by the given data source.
	ListActive(ctx context.Context, source models.DataSource) ([]*models.Room, error)
	// ListActiveByDevice returns active rooms bound to an IoT device.
	ListActiveByDevice(ctx context.Context, deviceID uuid.UUID) ([]*models.Room, error)
	// Get fetches one room by ID.
	Get(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// SaveCurrentState overwrites a room's current state and updated-at.
	SaveCurrentState(ctx context.Context, room *models.Room) error
}

// DeviceStore exposes the device operations the engine needs.
type DeviceStore interface {
	ListActive(ctx context.Context) ([]*models.Device, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Device, error)
	// UpdateStatus persists a device's health status and last-update time.
	UpdateStatus(ctx context.Context, device *models.Device) error
}

// HistoryStore is the append-only historical record store.
type HistoryStore interface {
	Append(ctx context.Context, record *models.HistoricalRecord) error
	AppendBatch(ctx context.Context, records []*models.HistoricalRecord) error
	// DeleteOlderThan prunes a room's records before cutoff, returning the
	// number removed.
	DeleteOlderThan(ctx context.Context, roomID uuid.UUID, cutoff time.Time) (int64, error)
	// ListRange returns records for a room in [from,to], newest first.
	ListRange(ctx context.Context, roomID uuid.UUID, from, to time.Time, limit int) ([]*models.HistoricalRecord, error)
}
