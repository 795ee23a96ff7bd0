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

	"github.com/aercore/aqengine/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultConnectTimeout = 10 * time.Second

// PostgresConfig controls the connection pool.
type PostgresConfig struct {
	DSN      string `json:"dsn"`
	MaxConns int32  `json:"max_conns,omitempty"`
}

// Postgres carries the pgx pool behind the three store interfaces.
type Postgres struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// Rooms returns the RoomStore backed by this pool.
func (p *Postgres) Rooms() RoomStore { return &roomStore{pool: p.pool} }

// Devices returns the DeviceStore backed by this pool.
func (p *Postgres) Devices() DeviceStore { return &deviceStore{pool: p.pool} }

// History returns the HistoryStore backed by this pool.
func (p *Postgres) History() HistoryStore { return &historyStore{pool: p.pool} }

// NewPostgres connects a pool and verifies connectivity.
func NewPostgres(ctx context.Context, cfg *PostgresConfig, log logger.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	connectCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool, logger: log}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
    id            UUID PRIMARY KEY,
    name          TEXT NOT NULL,
    building_id   UUID NOT NULL,
    building_name TEXT NOT NULL,
    data_source   TEXT NOT NULL DEFAULT 'simulation',
    iot_device_id UUID,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    aqi           INTEGER NOT NULL DEFAULT 0,
    pm25          DOUBLE PRECISION NOT NULL DEFAULT 0,
    pm10          DOUBLE PRECISION NOT NULL DEFAULT 0,
    co2           DOUBLE PRECISION NOT NULL DEFAULT 0,
    temperature   DOUBLE PRECISION NOT NULL DEFAULT 0,
    humidity      DOUBLE PRECISION NOT NULL DEFAULT 0,
    state_updated_at TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS devices (
    id          UUID PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    endpoint    TEXT NOT NULL,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    status      TEXT NOT NULL DEFAULT 'offline',
    last_update TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sensor_history (
    id            BIGSERIAL PRIMARY KEY,
    room_id       UUID NOT NULL,
    room_name     TEXT NOT NULL,
    building_name TEXT NOT NULL,
    aqi           INTEGER NOT NULL,
    pm25          DOUBLE PRECISION NOT NULL,
    pm10          DOUBLE PRECISION NOT NULL,
    co2           DOUBLE PRECISION NOT NULL,
    temperature   DOUBLE PRECISION NOT NULL,
    humidity      DOUBLE PRECISION NOT NULL,
    category      TEXT NOT NULL,
    timestamp     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sensor_history_room_ts
    ON sensor_history (room_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_sensor_history_ts
    ON sensor_history (timestamp DESC);
`

// Bootstrap creates the engine's tables and indexes if missing.
func (p *Postgres) Bootstrap(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	p.logger.Info().Msg("Database schema verified")

	return nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}

	return t
}
