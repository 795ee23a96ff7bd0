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
	"os"
	"testing"

	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPostgres connects to the database named by TEST_DATABASE_DSN, or skips.
func testPostgres(t *testing.T) *Postgres {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()

	pg, err := NewPostgres(ctx, &PostgresConfig{DSN: dsn}, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	require.NoError(t, pg.Bootstrap(ctx))

	return pg
}

func insertRoom(t *testing.T, pg *Postgres, room *models.Room) {
	t.Helper()

	_, err := pg.pool.Exec(context.Background(), `
		INSERT INTO rooms (id, name, building_id, building_name, data_source, iot_device_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		room.ID, room.Name, room.BuildingID, room.BuildingName,
		string(room.DataSource), room.IoTDeviceID, room.IsActive,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pg.pool.Exec(context.Background(), `DELETE FROM rooms WHERE id = $1`, room.ID)
	})
}

func TestListActiveByDeviceExcludesSimulationRooms(t *testing.T) {
	pg := testPostgres(t)
	ctx := context.Background()

	deviceID := uuid.New()
	buildingID := uuid.New()

	iotRoom := &models.Room{
		ID:           uuid.New(),
		Name:         "Sensor Room A",
		BuildingID:   buildingID,
		BuildingName: "Engineering",
		DataSource:   models.DataSourceIoT,
		IoTDeviceID:  &deviceID,
		IsActive:     true,
	}

	// Switched back to simulation but still carrying a stale device binding.
	staleRoom := &models.Room{
		ID:           uuid.New(),
		Name:         "Sensor Room B",
		BuildingID:   buildingID,
		BuildingName: "Engineering",
		DataSource:   models.DataSourceSimulation,
		IoTDeviceID:  &deviceID,
		IsActive:     true,
	}

	inactiveRoom := &models.Room{
		ID:           uuid.New(),
		Name:         "Sensor Room C",
		BuildingID:   buildingID,
		BuildingName: "Engineering",
		DataSource:   models.DataSourceIoT,
		IoTDeviceID:  &deviceID,
		IsActive:     false,
	}

	insertRoom(t, pg, iotRoom)
	insertRoom(t, pg, staleRoom)
	insertRoom(t, pg, inactiveRoom)

	rooms, err := pg.Rooms().ListActiveByDevice(ctx, deviceID)
	require.NoError(t, err)

	require.Len(t, rooms, 1)
	assert.Equal(t, iotRoom.ID, rooms[0].ID)
}
