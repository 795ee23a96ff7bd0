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

// Package models defines the shared data types for the acquisition engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the health classification derived from AQI.
type Category string

const (
	CategoryGood          Category = "good"
	CategoryModerate      Category = "moderate"
	CategoryUnhealthy     Category = "unhealthy"
	CategoryVeryUnhealthy Category = "very_unhealthy"
	CategoryHazardous     Category = "hazardous"
	CategoryError         Category = "error"
)

// Provenance tags where a reading came from.
type Provenance string

const (
	ProvenanceSimulation Provenance = "simulation"
	ProvenanceIoT        Provenance = "iot"
	ProvenanceFallback   Provenance = "fallback"
)

// Reading is a single normalized air-quality observation. Category is always
// derived from the AQI calculator, never set independently.
type Reading struct {
	AQI         int       `json:"aqi"`
	PM25        float64   `json:"pm25"`
	PM10        float64   `json:"pm10"`
	CO2         float64   `json:"co2"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Category    Category  `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

// IsSensorError reports whether the reading is the sensor-fault sentinel.
func (r *Reading) IsSensorError() bool {
	return r.Category == CategoryError
}

// HistoricalRecord is an append-only snapshot of a reading tagged with
// denormalized room and building names. Never mutated after insert.
type HistoricalRecord struct {
	ID           int64     `json:"id,omitempty"`
	RoomID       uuid.UUID `json:"room_id"`
	RoomName     string    `json:"room_name"`
	BuildingName string    `json:"building_name"`
	AQI          int       `json:"aqi"`
	PM25         float64   `json:"pm25"`
	PM10         float64   `json:"pm10"`
	CO2          float64   `json:"co2"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	Category     Category  `json:"category"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewHistoricalRecord snapshots a reading for a room.
func NewHistoricalRecord(room *Room, reading *Reading) *HistoricalRecord {
	return &HistoricalRecord{
		RoomID:       room.ID,
		RoomName:     room.Name,
		BuildingName: room.BuildingName,
		AQI:          reading.AQI,
		PM25:         reading.PM25,
		PM10:         reading.PM10,
		CO2:          reading.CO2,
		Temperature:  reading.Temperature,
		Humidity:     reading.Humidity,
		Category:     reading.Category,
		Timestamp:    reading.Timestamp,
	}
}
