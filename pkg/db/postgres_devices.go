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

type deviceStore struct {
	pool *pgxpool.Pool
}

const deviceColumns = `id, name, description, endpoint, is_active, status, last_update,
	created_at, updated_at`

// ListActive returns all active IoT devices.
func (s *deviceStore) ListActive(ctx context.Context) ([]*models.Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM devices WHERE is_active ORDER BY name`, deviceColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device

	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("device rows error: %w", err)
	}

	return devices, nil
}

// Get fetches a single device.
func (s *deviceStore) Get(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	query := fmt.Sprintf(`SELECT %s FROM devices WHERE id = $1`, deviceColumns)

	device, err := scanDevice(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return device, nil
}

// UpdateStatus persists a device's health status and last-update time.
func (s *deviceStore) UpdateStatus(ctx context.Context, device *models.Device) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE devices
		SET status = $2, last_update = $3, updated_at = now()
		WHERE id = $1`,
		device.ID, string(device.Status), nullableTime(device.LastUpdate),
	)
	if err != nil {
		return fmt.Errorf("failed to update device status: %w", err)
	}

	return nil
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var (
		device     models.Device
		lastUpdate sql.NullTime
	)

	err := row.Scan(
		&device.ID, &device.Name, &device.Description, &device.Endpoint,
		&device.IsActive, &device.Status, &lastUpdate,
		&device.CreatedAt, &device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastUpdate.Valid {
		device.LastUpdate = lastUpdate.Time
	}

	return &device, nil
}
