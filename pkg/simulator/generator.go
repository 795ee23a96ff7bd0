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

// Package simulator produces synthetic air-quality readings for campus rooms.
package simulator

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aercore/aqengine/pkg/aqi"
	"github.com/aercore/aqengine/pkg/models"
)

const (
	// Anomaly bands over a single uniform draw: [0,0.05) pollution spike,
	// [0.05,0.08) sensor-error sentinel, otherwise pass-through.
	spikeProbability    = 0.05
	sentinelProbability = 0.08

	co2Floor    = 300
	humidityLo  = 20
	humidityHi  = 90
	maxAQIValue = 500
)

// Profile holds the base sensor values for a room type.
type Profile struct {
	PM25        float64
	PM10        float64
	CO2         float64
	Temperature float64
	Humidity    float64
}

var profiles = map[models.RoomType]Profile{
	models.RoomTypeNormal:     {PM25: 15, PM10: 30, CO2: 600, Temperature: 24, Humidity: 52},
	models.RoomTypeClassroom:  {PM25: 12, PM10: 25, CO2: 700, Temperature: 25, Humidity: 55},
	models.RoomTypeLaboratory: {PM25: 8, PM10: 15, CO2: 500, Temperature: 23, Humidity: 50},
	models.RoomTypeLibrary:    {PM25: 6, PM10: 12, CO2: 450, Temperature: 22, Humidity: 48},
	models.RoomTypeCrowded:    {PM25: 25, PM10: 45, CO2: 1200, Temperature: 27, Humidity: 65},
}

// BaseProfile returns the base values for a room type, defaulting to normal.
func BaseProfile(roomType models.RoomType) Profile {
	p, ok := profiles[roomType]
	if !ok {
		return profiles[models.RoomTypeNormal]
	}

	return p
}

// Generator produces synthetic readings with optional anomaly injection.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator seeded from the current time.
func New() *Generator {
	now := uint64(time.Now().UnixNano()) //nolint:gosec // simulation seed, not security

	return &Generator{rng: rand.New(rand.NewPCG(now, now>>32))}
}

// NewWithSeed creates a deterministic Generator for tests.
func NewWithSeed(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Generate produces a reading for a room type: base profile, multiplicative
// noise in [0.7,1.3] on the pollutants, additive jitter on temperature and
// humidity, AQI and category derived from the jittered PM2.5.
func (g *Generator) Generate(roomType models.RoomType) models.Reading {
	p := BaseProfile(roomType)

	pm25 := math.Max(0, p.PM25*g.noiseFactor())
	pm10 := math.Max(0, p.PM10*g.noiseFactor())
	co2 := math.Max(co2Floor, p.CO2*g.noiseFactor())
	temperature := p.Temperature + (g.rng.Float64()*4 - 2)
	humidity := clamp(p.Humidity+(g.rng.Float64()*10-5), humidityLo, humidityHi)

	result := aqi.FromPM25(pm25)

	return models.Reading{
		AQI:         result.AQI,
		PM25:        round1(pm25),
		PM10:        round1(pm10),
		CO2:         math.Round(co2),
		Temperature: round1(temperature),
		Humidity:    math.Round(humidity),
		Category:    result.Category,
		Timestamp:   time.Now(),
	}
}

// SimulateAnomaly applies a second pass to a normal reading. One uniform draw
// decides: a pollution spike, a sensor-error sentinel, or no change. The
// spike band is checked first, so the two never overlap.
func (g *Generator) SimulateAnomaly(reading models.Reading) models.Reading {
	draw := g.rng.Float64()

	switch {
	case draw < spikeProbability:
		reading.PM25 = round1(reading.PM25 * (3 + g.rng.Float64()*2))
		reading.PM10 = round1(reading.PM10 * (3 + g.rng.Float64()*2))
		reading.CO2 = math.Round(reading.CO2 * (1.5 + g.rng.Float64()))

		result := aqi.FromPM25(reading.PM25)
		reading.AQI = min(maxAQIValue, result.AQI)
		reading.Category = result.Category

		return reading
	case draw < sentinelProbability:
		reading.AQI = -1
		reading.PM25 = -1
		reading.PM10 = -1
		reading.CO2 = -1
		reading.Temperature = -1
		reading.Humidity = -1
		reading.Category = models.CategoryError

		return reading
	default:
		return reading
	}
}

func (g *Generator) noiseFactor() float64 {
	return 0.7 + g.rng.Float64()*0.6
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RoomTypeFromName classifies a room by keywords in its display name.
func RoomTypeFromName(name string) models.RoomType {
	n := strings.ToLower(name)

	switch {
	case strings.Contains(n, "lab"):
		return models.RoomTypeLaboratory
	case strings.Contains(n, "library"):
		return models.RoomTypeLibrary
	case strings.Contains(n, "hall"), strings.Contains(n, "auditorium"):
		return models.RoomTypeCrowded
	case strings.Contains(n, "class"), strings.Contains(n, "room"), strings.Contains(n, "r."):
		return models.RoomTypeClassroom
	default:
		return models.RoomTypeNormal
	}
}
