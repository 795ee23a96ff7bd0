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

package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(endpoint string) *models.Device {
	return &models.Device{
		ID:       uuid.New(),
		Name:     "lab-sensor-1",
		Endpoint: endpoint,
		IsActive: true,
		Status:   models.DeviceStatusOnline,
	}
}

func TestPollHealthyDevice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"aqi": 62,
				"pm25": 17.3,
				"pm10": 31.0,
				"co2": 640,
				"temperature": 23.5,
				"humidity": 51.2
			}
		}`))
	}))
	defer server.Close()

	p := New(time.Second, logger.NewTestLogger())

	outcome, err := p.Poll(context.Background(), testDevice(server.URL))
	require.NoError(t, err)

	assert.Equal(t, models.DeviceStatusOnline, outcome.Status)
	assert.False(t, outcome.Fallback)
	require.NotNil(t, outcome.Reading)
	assert.Equal(t, 62, outcome.Reading.AQI)
	assert.InDelta(t, 17.3, outcome.Reading.PM25, 1e-9)
	assert.Equal(t, models.CategoryModerate, outcome.Reading.Category)
	assert.False(t, outcome.Reading.Timestamp.IsZero())
}

func TestPollMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{
			name: "non-numeric pm25",
			body: `{"success": true, "data": {"aqi": 62, "pm25": "seventeen", "pm10": 31, "co2": 640, "temperature": 23.5, "humidity": 51.2}}`,
			code: http.StatusOK,
		},
		{
			name: "missing field",
			body: `{"success": true, "data": {"aqi": 62, "pm25": 17.3, "pm10": 31, "co2": 640, "temperature": 23.5}}`,
			code: http.StatusOK,
		},
		{
			name: "success flag false",
			body: `{"success": false, "data": {"aqi": 62, "pm25": 17.3, "pm10": 31, "co2": 640, "temperature": 23.5, "humidity": 51.2}}`,
			code: http.StatusOK,
		},
		{
			name: "not json",
			body: `<html>device portal</html>`,
			code: http.StatusOK,
		},
		{
			name: "server error",
			body: `{}`,
			code: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := New(time.Second, logger.NewTestLogger())

			outcome, err := p.Poll(context.Background(), testDevice(server.URL))
			require.NoError(t, err)

			assert.Equal(t, models.DeviceStatusError, outcome.Status)
			assert.True(t, outcome.Fallback)
			assert.Nil(t, outcome.Reading)
		})
	}
}

func TestPollTimeoutMarksOffline(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	// Unblock the handler before the deferred server.Close waits on it.
	defer close(release)

	p := New(50*time.Millisecond, logger.NewTestLogger())

	outcome, err := p.Poll(context.Background(), testDevice(server.URL))
	require.NoError(t, err)

	assert.Equal(t, models.DeviceStatusOffline, outcome.Status)
	assert.True(t, outcome.Fallback)
	assert.Nil(t, outcome.Reading)
}

func TestPollSkipsWhenInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
	}))
	defer server.Close()

	p := New(5*time.Second, logger.NewTestLogger())
	device := testDevice(server.URL)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		_, _ = p.Poll(context.Background(), device)
	}()

	<-entered

	_, err := p.Poll(context.Background(), device)
	assert.ErrorIs(t, err, ErrPollInFlight)

	close(release)
	wg.Wait()

	// The guard clears once the first poll finishes.
	_, err = p.Poll(context.Background(), device)
	assert.NoError(t, err)
}

func TestPollContextCancellation(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	// Unblock the handler before the deferred server.Close waits on it.
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := New(5*time.Second, logger.NewTestLogger())

	outcome, err := p.Poll(ctx, testDevice(server.URL))
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusOffline, outcome.Status)
	assert.True(t, outcome.Fallback)
}
