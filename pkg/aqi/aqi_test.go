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

package aqi

import (
	"testing"

	"github.com/aercore/aqengine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPM25_BandEdges(t *testing.T) {
	tests := []struct {
		name     string
		pm25     float64
		wantAQI  int
		wantCat  models.Category
		wantColr string
	}{
		{"zero", 0, 0, models.CategoryGood, ColorGood},
		{"top of good band", 12.0, 50, models.CategoryGood, ColorGood},
		{"top of moderate band", 35.4, 100, models.CategoryModerate, ColorModerate},
		{"top of unhealthy band", 55.4, 150, models.CategoryUnhealthy, ColorUnhealthy},
		{"top of very unhealthy band", 150.4, 200, models.CategoryVeryUnhealthy, ColorVeryUnhealthy},
		{"top of hazardous band", 250.4, 300, models.CategoryHazardous, ColorHazardous},
		{"top of scale", 500.4, 500, models.CategoryHazardous, ColorMaroon},
		{"beyond scale clamps", 900, 500, models.CategoryHazardous, ColorMaroon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromPM25(tt.pm25)
			assert.Equal(t, tt.wantAQI, got.AQI)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.Equal(t, tt.wantColr, got.Color)
		})
	}
}

func TestFromPM25_NegativeSentinel(t *testing.T) {
	got := FromPM25(-1)

	assert.Equal(t, -1, got.AQI)
	assert.Equal(t, models.CategoryError, got.Category)
}

func TestFromPM25_MonotonicNonDecreasing(t *testing.T) {
	prev := -1

	for pm25 := 0.0; pm25 <= 520.0; pm25 += 0.05 {
		got := FromPM25(pm25)
		require.GreaterOrEqual(t, got.AQI, prev, "AQI decreased at pm25=%f", pm25)
		prev = got.AQI
	}
}

// The index calculation and the direct AQI classification must agree on the
// category for every concentration.
func TestFromPM25_CategoryEquivalence(t *testing.T) {
	for pm25 := 0.0; pm25 <= 520.0; pm25 += 0.01 {
		res := FromPM25(pm25)
		info := CategoryFromAQI(float64(res.AQI))

		require.Equal(t, res.Category, info.Category,
			"category mismatch at pm25=%f (aqi=%d)", pm25, res.AQI)
	}
}

func TestCategoryFromAQI(t *testing.T) {
	assert.Equal(t, models.CategoryGood, CategoryFromAQI(0).Category)
	assert.Equal(t, models.CategoryGood, CategoryFromAQI(50).Category)
	assert.Equal(t, models.CategoryModerate, CategoryFromAQI(51).Category)
	assert.Equal(t, models.CategoryUnhealthy, CategoryFromAQI(150).Category)
	assert.Equal(t, models.CategoryVeryUnhealthy, CategoryFromAQI(200).Category)
	assert.Equal(t, models.CategoryHazardous, CategoryFromAQI(300).Category)
	assert.Equal(t, models.CategoryHazardous, CategoryFromAQI(450).Category)
	assert.Equal(t, ColorMaroon, CategoryFromAQI(450).Color)
	assert.Equal(t, models.CategoryError, CategoryFromAQI(-1).Category)
}

func TestEvaluateParameter(t *testing.T) {
	assert.Equal(t, "good", EvaluateParameter("pm25", 10).Status)
	assert.Equal(t, "moderate", EvaluateParameter("pm25", 20).Status)
	assert.Equal(t, "hazardous", EvaluateParameter("pm10", 400).Status)
	assert.Equal(t, "unhealthy", EvaluateParameter("co2", 1200).Status)
	assert.Equal(t, "ideal", EvaluateParameter("temperature", 24).Status)
	assert.Equal(t, "poor", EvaluateParameter("temperature", 35).Status)
	assert.Equal(t, "ideal", EvaluateParameter("humidity", 50).Status)
	assert.Equal(t, "unknown", EvaluateParameter("pressure", 1).Status)
}
