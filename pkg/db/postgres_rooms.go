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

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aercore/aqengine/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type roomStore struct {
	pool *pgxpool.Pool
}

const roomColumns = `id, name, building_id, building_name, data_source, iot_device_id,
	is_active, aqi, pm25, pm10, co2, temperature, humidity, state_updated_at,
	created_at, updated_at`

// ListActive returns active rooms for one data source.
func (s *roomStore) ListActive(ctx context.Context, source models.DataSource) ([]*models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE is_active AND data_source = $1 ORDER BY name`, roomColumns)

	rows, err := s.pool.Query(ctx, query, string(source))
	if err != nil {
		return nil, fmt.Errorf("failed to list active rooms: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

// ListActiveByDevice returns active IoT-path rooms bound to the given device.
// The data_source predicate keeps a room that was switched back to simulation
// with a stale device id out of the IoT path.
func (s *roomStore) ListActiveByDevice(ctx context.Context, deviceID uuid.UUID) ([]*models.Room, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM rooms WHERE is_active AND data_source = 'iot' AND iot_device_id = $1 ORDER BY name`,
		roomColumns)

	rows, err := s.pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms by device: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

// Get fetches a single room.
func (s *roomStore) Get(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = $1`, roomColumns)

	room, err := scanRoom(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// SaveCurrentState overwrites the room's current-state columns.
func (s *roomStore) SaveCurrentState(ctx context.Context, room *models.Room) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE rooms
		SET aqi = $2, pm25 = $3, pm10 = $4, co2 = $5, temperature = $6,
		    humidity = $7, state_updated_at = $8, updated_at = now()
		WHERE id = $1`,
		room.ID,
		room.CurrentState.AQI,
		room.CurrentState.PM25,
		room.CurrentState.PM10,
		room.CurrentState.CO2,
		room.CurrentState.Temperature,
		room.CurrentState.Humidity,
		room.CurrentState.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save room state: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		room      models.Room
		deviceID  uuid.NullUUID
		updatedAt sql.NullTime
	)

	err := row.Scan(
		&room.ID, &room.Name, &room.BuildingID, &room.BuildingName,
		&room.DataSource, &deviceID, &room.IsActive,
		&room.CurrentState.AQI, &room.CurrentState.PM25, &room.CurrentState.PM10,
		&room.CurrentState.CO2, &room.CurrentState.Temperature, &room.CurrentState.Humidity,
		&updatedAt, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deviceID.Valid {
		id := deviceID.UUID
		room.IoTDeviceID = &id
	}

	if updatedAt.Valid {
		room.CurrentState.UpdatedAt = updatedAt.Time
	}

	return &room, nil
}

func scanRooms(rows pgx.Rows) ([]*models.Room, error) {
	var rooms []*models.Room

	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}

		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("room rows error: %w", err)
	}

	return rooms, nil
}
