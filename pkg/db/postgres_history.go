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
	"fmt"
	"time"

	"github.com/aercore/aqengine/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type historyStore struct {
	pool *pgxpool.Pool
}

const insertHistory = `
	INSERT INTO sensor_history
		(room_id, room_name, building_name, aqi, pm25, pm10, co2, temperature, humidity, category, timestamp)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Append inserts one historical record.
func (s *historyStore) Append(ctx context.Context, record *models.HistoricalRecord) error {
	_, err := s.pool.Exec(ctx, insertHistory,
		record.RoomID, record.RoomName, record.BuildingName,
		record.AQI, record.PM25, record.PM10, record.CO2,
		record.Temperature, record.Humidity, string(record.Category), record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}

	return nil
}

// AppendBatch inserts records in a single batch round trip.
func (s *historyStore) AppendBatch(ctx context.Context, records []*models.HistoricalRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, record := range records {
		batch.Queue(insertHistory,
			record.RoomID, record.RoomName, record.BuildingName,
			record.AQI, record.PM25, record.PM10, record.CO2,
			record.Temperature, record.Humidity, string(record.Category), record.Timestamp,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to append history batch: %w", err)
		}
	}

	return nil
}

// DeleteOlderThan prunes a room's records before cutoff.
func (s *historyStore) DeleteOlderThan(ctx context.Context, roomID uuid.UUID, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sensor_history WHERE room_id = $1 AND timestamp < $2`,
		roomID, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ListRange returns a room's records in [from,to], newest first.
func (s *historyStore) ListRange(ctx context.Context, roomID uuid.UUID, from, to time.Time, limit int) ([]*models.HistoricalRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, room_name, building_name, aqi, pm25, pm10, co2,
		       temperature, humidity, category, timestamp
		FROM sensor_history
		WHERE room_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp DESC
		LIMIT $4`,
		roomID, from, to, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*models.HistoricalRecord

	for rows.Next() {
		var record models.HistoricalRecord

		err := rows.Scan(
			&record.ID, &record.RoomID, &record.RoomName, &record.BuildingName,
			&record.AQI, &record.PM25, &record.PM10, &record.CO2,
			&record.Temperature, &record.Humidity, &record.Category, &record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows error: %w", err)
	}

	return records, nil
}
