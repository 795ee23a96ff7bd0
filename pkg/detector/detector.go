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

// Package detector decides whether a candidate reading differs enough from
// the previous one to be worth persisting and broadcasting.
package detector

import (
	"math"

	"github.com/aercore/aqengine/pkg/models"
)

// Thresholds holds the per-field significance limits. A change is significant
// when any absolute delta strictly exceeds its threshold.
type Thresholds struct {
	AQI         float64 `json:"aqi"`
	PM25        float64 `json:"pm25"`
	PM10        float64 `json:"pm10"`
	CO2         float64 `json:"co2"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// Sensitive returns the threshold set for the IoT path. Real sensor data is
// trusted, so small moves are surfaced.
func Sensitive() Thresholds {
	return Thresholds{
		AQI:         1,
		PM25:        1.0,
		PM10:        1.0,
		CO2:         1,
		Temperature: 0.5,
		Humidity:    1.0,
	}
}

// Coarse returns the threshold set for the simulation path. Simulated data is
// noisy; only material moves should reach the dashboard.
func Coarse() Thresholds {
	return Thresholds{
		AQI:         5,
		PM25:        2.0,
		PM10:        5.0,
		CO2:         50,
		Temperature: 0.5,
		Humidity:    3.0,
	}
}

// Detector gates persistence and broadcast on significant change.
type Detector struct {
	thresholds Thresholds
}

// New creates a Detector with the given threshold set.
func New(thresholds Thresholds) *Detector {
	return &Detector{thresholds: thresholds}
}

// IsSignificant reports whether candidate deviates from previous beyond any
// per-field threshold. A nil previous (first observation) is always
// significant.
func (d *Detector) IsSignificant(previous, candidate *models.Reading) bool {
	if previous == nil {
		return true
	}

	t := d.thresholds

	return math.Abs(float64(candidate.AQI-previous.AQI)) > t.AQI ||
		math.Abs(candidate.PM25-previous.PM25) > t.PM25 ||
		math.Abs(candidate.PM10-previous.PM10) > t.PM10 ||
		math.Abs(candidate.CO2-previous.CO2) > t.CO2 ||
		math.Abs(candidate.Temperature-previous.Temperature) > t.Temperature ||
		math.Abs(candidate.Humidity-previous.Humidity) > t.Humidity
}
