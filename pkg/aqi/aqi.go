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

// Package aqi converts PM2.5 concentrations to the US EPA Air Quality Index
// via piecewise-linear breakpoint interpolation.
package aqi

import (
	"math"

	"github.com/aercore/aqengine/pkg/models"
)

const (
	ColorGood          = "#00E400"
	ColorModerate      = "#FFFF00"
	ColorUnhealthy     = "#FF7E00"
	ColorVeryUnhealthy = "#FF0000"
	ColorHazardous     = "#8F3F97"
	ColorMaroon        = "#7E0023"
	ColorIdeal         = "#0066CC"
	ColorUnknown       = "#CCCCCC"

	// maxConcentration is the upper edge of the last breakpoint band.
	// Concentrations above it clamp to AQI 500.
	maxConcentration = 500.4
)

// Result is the outcome of a PM2.5 to AQI conversion.
type Result struct {
	AQI      int             `json:"aqi"`
	Category models.Category `json:"category"`
	Color    string          `json:"color"`
}

// CategoryInfo classifies an AQI value directly.
type CategoryInfo struct {
	Category models.Category `json:"category"`
	Color    string          `json:"color"`
	Label    string          `json:"label"`
}

type band struct {
	cLow, cHigh float64
	iLow, iHigh float64
	category    models.Category
	color       string
}

// US EPA PM2.5 breakpoints. The concentration edges map exactly onto the
// index edges (12.0 -> 50, 35.4 -> 100, ...), which keeps FromPM25 and
// CategoryFromAQI in agreement for every concentration.
var pm25Bands = []band{
	{0, 12.0, 0, 50, models.CategoryGood, ColorGood},
	{12.1, 35.4, 51, 100, models.CategoryModerate, ColorModerate},
	{35.5, 55.4, 101, 150, models.CategoryUnhealthy, ColorUnhealthy},
	{55.5, 150.4, 151, 200, models.CategoryVeryUnhealthy, ColorVeryUnhealthy},
	{150.5, 250.4, 201, 300, models.CategoryHazardous, ColorHazardous},
	{250.5, maxConcentration, 301, 500, models.CategoryHazardous, ColorMaroon},
}

// FromPM25 maps a PM2.5 concentration (µg/m³) to an AQI index, category and
// display color. Negative input is the sensor-error sentinel and yields
// AQI -1 with category error; it never propagates an error.
func FromPM25(pm25 float64) Result {
	if pm25 < 0 || math.IsNaN(pm25) {
		return Result{AQI: -1, Category: models.CategoryError, Color: ColorUnknown}
	}

	if pm25 > maxConcentration {
		pm25 = maxConcentration
	}

	b := pm25Bands[len(pm25Bands)-1]

	for _, candidate := range pm25Bands {
		if pm25 <= candidate.cHigh {
			b = candidate
			break
		}
	}

	aqi := linearScale(pm25, b.cLow, b.cHigh, b.iLow, b.iHigh)

	return Result{
		AQI:      int(math.Round(aqi)),
		Category: b.category,
		Color:    b.color,
	}
}

// linearScale interpolates concentration C within [Clow,Chigh] onto the AQI
// sub-range [Ilow,Ihigh].
func linearScale(c, cLow, cHigh, iLow, iHigh float64) float64 {
	return (iHigh-iLow)/(cHigh-cLow)*(c-cLow) + iLow
}

// CategoryFromAQI classifies an AQI value using the parallel output ladder at
// 50/100/150/200/300.
func CategoryFromAQI(aqi float64) CategoryInfo {
	switch {
	case aqi < 0:
		return CategoryInfo{models.CategoryError, ColorUnknown, "Sensor Error"}
	case aqi <= 50:
		return CategoryInfo{models.CategoryGood, ColorGood, "Good"}
	case aqi <= 100:
		return CategoryInfo{models.CategoryModerate, ColorModerate, "Moderate"}
	case aqi <= 150:
		return CategoryInfo{models.CategoryUnhealthy, ColorUnhealthy, "Unhealthy"}
	case aqi <= 200:
		return CategoryInfo{models.CategoryVeryUnhealthy, ColorVeryUnhealthy, "Very Unhealthy"}
	case aqi <= 300:
		return CategoryInfo{models.CategoryHazardous, ColorHazardous, "Hazardous"}
	default:
		return CategoryInfo{models.CategoryHazardous, ColorMaroon, "Hazardous"}
	}
}

// ParameterStatus is the per-parameter classification returned by
// EvaluateParameter.
type ParameterStatus struct {
	Status string `json:"status"`
	Color  string `json:"color"`
}

// EvaluateParameter classifies a single raw parameter value on its own
// ladder, independent of the AQI index.
func EvaluateParameter(kind string, value float64) ParameterStatus {
	switch kind {
	case "pm25":
		return ladder(value, []float64{12, 35.4, 55.4, 150.4})
	case "pm10":
		return ladder(value, []float64{54, 154, 254, 354})
	case "co2":
		return ladder(value, []float64{600, 1000, 1500, 2000})
	case "temperature":
		return comfortBand(value, 22, 26, 20, 28, 18, 30)
	case "humidity":
		return comfortBand(value, 40, 60, 30, 70, 20, 80)
	default:
		return ParameterStatus{"unknown", ColorUnknown}
	}
}

func ladder(value float64, edges []float64) ParameterStatus {
	statuses := []ParameterStatus{
		{"good", ColorGood},
		{"moderate", ColorModerate},
		{"unhealthy", ColorUnhealthy},
		{"very_unhealthy", ColorVeryUnhealthy},
	}

	for i, edge := range edges {
		if value <= edge {
			return statuses[i]
		}
	}

	return ParameterStatus{"hazardous", ColorHazardous}
}

func comfortBand(value, idealLo, idealHi, normalLo, normalHi, fairLo, fairHi float64) ParameterStatus {
	switch {
	case value >= idealLo && value <= idealHi:
		return ParameterStatus{"ideal", ColorIdeal}
	case value >= normalLo && value <= normalHi:
		return ParameterStatus{"normal", ColorGood}
	case value >= fairLo && value <= fairHi:
		return ParameterStatus{"moderate", ColorModerate}
	default:
		return ParameterStatus{"poor", ColorUnhealthy}
	}
}
