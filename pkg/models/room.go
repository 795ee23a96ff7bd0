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

package models

import (
	"time"

	"github.com/google/uuid"
)

// DataSource selects which scheduler path updates a room.
type DataSource string

const (
	DataSourceSimulation DataSource = "simulation"
	DataSourceIoT        DataSource = "iot"
)

// RoomType selects the base pollution profile for the simulation generator.
type RoomType string

const (
	RoomTypeNormal     RoomType = "normal"
	RoomTypeClassroom  RoomType = "classroom"
	RoomTypeLaboratory RoomType = "laboratory"
	RoomTypeLibrary    RoomType = "library"
	RoomTypeCrowded    RoomType = "crowded"
)

// CurrentState is a room's latest accepted reading, overwritten in place.
// UpdatedAt is the timestamp of the most recently accepted reading, not of
// every poll or tick.
type CurrentState struct {
	AQI         int       `json:"aqi"`
	PM25        float64   `json:"pm25"`
	PM10        float64   `json:"pm10"`
	CO2         float64   `json:"co2"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Room is owned by the administrative layer; the engine only mutates
// CurrentState on an accepted reading.
type Room struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	BuildingID   uuid.UUID    `json:"building_id"`
	BuildingName string       `json:"building_name"`
	DataSource   DataSource   `json:"data_source"`
	IoTDeviceID  *uuid.UUID   `json:"iot_device_id,omitempty"`
	IsActive     bool         `json:"is_active"`
	CurrentState CurrentState `json:"current_state"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CurrentReading converts the room's current state into a Reading for
// change-detection comparison. Returns nil if the room has never been updated.
func (r *Room) CurrentReading() *Reading {
	if r.CurrentState.UpdatedAt.IsZero() {
		return nil
	}

	return &Reading{
		AQI:         r.CurrentState.AQI,
		PM25:        r.CurrentState.PM25,
		PM10:        r.CurrentState.PM10,
		CO2:         r.CurrentState.CO2,
		Temperature: r.CurrentState.Temperature,
		Humidity:    r.CurrentState.Humidity,
		Timestamp:   r.CurrentState.UpdatedAt,
	}
}
