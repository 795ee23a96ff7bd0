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

package simulator

import (
	"testing"
	"time"

	"github.com/aercore/aqengine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_WithinNoiseBounds(t *testing.T) {
	g := NewWithSeed(42)

	for _, roomType := range []models.RoomType{
		models.RoomTypeNormal,
		models.RoomTypeClassroom,
		models.RoomTypeLaboratory,
		models.RoomTypeLibrary,
		models.RoomTypeCrowded,
	} {
		base := BaseProfile(roomType)

		for i := 0; i < 1000; i++ {
			r := g.Generate(roomType)

			// round1 can push a boundary draw just past the edge
			require.GreaterOrEqual(t, r.PM25, round1(base.PM25*0.7)-0.1)
			require.LessOrEqual(t, r.PM25, round1(base.PM25*1.3)+0.1)
			require.GreaterOrEqual(t, r.CO2, 300.0)
			require.InDelta(t, base.Temperature, r.Temperature, 2.1)
			require.GreaterOrEqual(t, r.Humidity, 20.0)
			require.LessOrEqual(t, r.Humidity, 90.0)
			require.NotEqual(t, models.CategoryError, r.Category)
		}
	}
}

func TestGenerate_CategoryMatchesAQI(t *testing.T) {
	g := NewWithSeed(7)

	for i := 0; i < 500; i++ {
		r := g.Generate(models.RoomTypeCrowded)
		require.GreaterOrEqual(t, r.AQI, 0)
		require.NotEmpty(t, r.Category)
	}
}

func TestSimulateAnomaly_Distribution(t *testing.T) {
	g := NewWithSeed(1234)
	base := BaseProfile(models.RoomTypeNormal)

	const draws = 10000

	var spikes, sentinels, normal int

	for i := 0; i < draws; i++ {
		r := g.SimulateAnomaly(g.Generate(models.RoomTypeNormal))

		switch {
		case r.Category == models.CategoryError:
			sentinels++

			assert.Equal(t, -1, r.AQI)
			assert.Equal(t, -1.0, r.PM25)
			assert.Equal(t, -1.0, r.CO2)
		case r.PM25 >= base.PM25*0.7*3: // spike scales PM2.5 by at least 3x
			spikes++

			assert.LessOrEqual(t, r.AQI, 500)
		default:
			normal++

			assert.LessOrEqual(t, r.PM25, round1(base.PM25*1.3)+0.1)
		}
	}

	// ~5% spikes, ~3% sentinels, generous statistical tolerance
	assert.InDelta(t, draws*5/100, spikes, draws*2/100, "spike rate")
	assert.InDelta(t, draws*3/100, sentinels, draws*1/100, "sentinel rate")
	assert.Greater(t, normal, draws*85/100)
}

func TestSimulateAnomaly_PassThroughKeepsReading(t *testing.T) {
	// With a seed whose first draw lands in the pass-through band, the
	// reading must come back untouched.
	g := NewWithSeed(3)
	in := models.Reading{
		AQI: 42, PM25: 10.2, PM10: 20.4, CO2: 610,
		Temperature: 24.3, Humidity: 55,
		Category: models.CategoryGood, Timestamp: time.Now(),
	}

	var passThrough bool

	for i := 0; i < 100; i++ {
		out := g.SimulateAnomaly(in)
		if out.Category != models.CategoryError && out.PM25 == in.PM25 {
			assert.Equal(t, in, out)

			passThrough = true
		}
	}

	assert.True(t, passThrough, "expected at least one pass-through in 100 draws")
}

func TestRoomTypeFromName(t *testing.T) {
	tests := []struct {
		name string
		want models.RoomType
	}{
		{"Chemistry Lab 2", models.RoomTypeLaboratory},
		{"Central Library", models.RoomTypeLibrary},
		{"Main Hall", models.RoomTypeCrowded},
		{"Auditorium B", models.RoomTypeCrowded},
		{"Classroom 101", models.RoomTypeClassroom},
		{"R.301", models.RoomTypeClassroom},
		{"Cafeteria", models.RoomTypeNormal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoomTypeFromName(tt.name), tt.name)
	}
}

func TestTrend_OccupancyShape(t *testing.T) {
	g := NewWithSeed(99)

	end := time.Date(2026, 3, 4, 23, 45, 0, 0, time.UTC) // a Wednesday
	points := 96                                         // one day at 15m steps
	readings := g.Trend(models.RoomTypeClassroom, end, points, 15*time.Minute)

	require.Len(t, readings, points)

	// chronological order, oldest first
	for i := 1; i < len(readings); i++ {
		require.True(t, readings[i].Timestamp.After(readings[i-1].Timestamp))
	}

	var officeSum, nightSum float64

	var officeN, nightN int

	for _, r := range readings {
		hour := r.Timestamp.Hour()
		if hour >= 8 && hour <= 17 {
			officeSum += r.PM25
			officeN++
		} else if hour < 6 {
			nightSum += r.PM25
			nightN++
		}
	}

	require.NotZero(t, officeN)
	require.NotZero(t, nightN)
	assert.Greater(t, officeSum/float64(officeN), nightSum/float64(nightN),
		"office hours should average dirtier air than night")
}
