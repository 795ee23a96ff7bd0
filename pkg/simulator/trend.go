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
	"math"
	"time"

	"github.com/aercore/aqengine/pkg/aqi"
	"github.com/aercore/aqengine/pkg/models"
)

// Trend generates a backfill series for a room type, one reading per step
// ending at end. Pollutants follow campus occupancy: elevated during office
// hours, moderate in the evening, low at night, and reduced on weekends.
// Used for seeding dashboards with plausible history.
func (g *Generator) Trend(roomType models.RoomType, end time.Time, points int, step time.Duration) []models.Reading {
	p := BaseProfile(roomType)
	readings := make([]models.Reading, 0, points)

	for i := points - 1; i >= 0; i-- {
		ts := end.Add(-time.Duration(i) * step)
		variation := g.occupancyVariation(ts)

		pm25 := clamp(p.PM25*variation, 5, 150)
		pm10 := clamp(p.PM10*variation, 10, 200)
		co2 := clamp(p.CO2*variation, 400, 1500)
		temperature := p.Temperature + (g.rng.Float64()*4 - 2)
		humidity := clamp(p.Humidity+(g.rng.Float64()*10-5), 30, 80)

		result := aqi.FromPM25(pm25)

		readings = append(readings, models.Reading{
			AQI:         result.AQI,
			PM25:        round1(pm25),
			PM10:        round1(pm10),
			CO2:         math.Round(co2),
			Temperature: round1(temperature),
			Humidity:    math.Round(humidity),
			Category:    result.Category,
			Timestamp:   ts,
		})
	}

	return readings
}

func (g *Generator) occupancyVariation(ts time.Time) float64 {
	hour := ts.Hour()

	var variation float64

	switch {
	case hour >= 8 && hour <= 17: // office hours
		variation = 1.2 + g.rng.Float64()*0.3
	case hour >= 18 && hour <= 22: // evening
		variation = 1.0 + g.rng.Float64()*0.2
	default: // night
		variation = 0.8 + g.rng.Float64()*0.2
	}

	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		variation *= 0.6
	}

	return variation
}
