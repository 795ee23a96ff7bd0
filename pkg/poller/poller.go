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

// Package poller fetches readings from campus IoT air-quality devices over
// HTTP. Each device exposes a JSON endpoint; a poll that times out marks the
// device offline, and a malformed response marks it errored. Either failure
// asks the caller to fall back to simulated data for the device's rooms.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aercore/aqengine/pkg/aqi"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
)

const (
	defaultTimeout  = 5 * time.Second
	maxResponseSize = 1 << 20 // 1 MiB
)

var (
	// ErrPollInFlight means a poll for this device is already running.
	ErrPollInFlight = errors.New("poll already in flight for device")

	errMalformedPayload = errors.New("malformed device payload")
)

// Outcome is the result of polling one device.
type Outcome struct {
	Reading  *models.Reading
	Status   models.DeviceStatus
	Fallback bool // caller should substitute simulated data
}

// DevicePoller polls device endpoints with a bounded timeout and at most one
// in-flight request per device.
type DevicePoller struct {
	client   *http.Client
	logger   logger.Logger
	inFlight sync.Map // uuid.UUID -> struct{}
}

// New creates a DevicePoller with the given request timeout. A zero timeout
// uses the default of 5 seconds.
func New(timeout time.Duration, log logger.Logger) *DevicePoller {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &DevicePoller{
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

// devicePayload is the wire format devices respond with. Every field is
// required; pointers distinguish absent from zero.
type devicePayload struct {
	Success bool `json:"success"`
	Data    struct {
		AQI         *float64 `json:"aqi"`
		PM25        *float64 `json:"pm25"`
		PM10        *float64 `json:"pm10"`
		CO2         *float64 `json:"co2"`
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
	} `json:"data"`
}

func (p *devicePayload) validate() error {
	if !p.Success {
		return fmt.Errorf("%w: success flag not set", errMalformedPayload)
	}

	fields := map[string]*float64{
		"aqi":         p.Data.AQI,
		"pm25":        p.Data.PM25,
		"pm10":        p.Data.PM10,
		"co2":         p.Data.CO2,
		"temperature": p.Data.Temperature,
		"humidity":    p.Data.Humidity,
	}

	for name, value := range fields {
		if value == nil {
			return fmt.Errorf("%w: missing field %q", errMalformedPayload, name)
		}

		if math.IsNaN(*value) || math.IsInf(*value, 0) {
			return fmt.Errorf("%w: field %q is not finite", errMalformedPayload, name)
		}
	}

	return nil
}

// Poll fetches one reading from a device. It never returns an error for a
// failed device; the failure mode is encoded in the Outcome so the caller can
// update device status and fall back. ErrPollInFlight is returned when a
// previous poll for the same device has not finished.
func (p *DevicePoller) Poll(ctx context.Context, device *models.Device) (*Outcome, error) {
	if _, loaded := p.inFlight.LoadOrStore(device.ID, struct{}{}); loaded {
		return nil, ErrPollInFlight
	}
	defer p.inFlight.Delete(device.ID)

	reading, err := p.fetch(ctx, device)
	if err != nil {
		status := models.DeviceStatusError
		if isTimeout(err) {
			status = models.DeviceStatusOffline
		}

		p.logger.Warn().
			Err(err).
			Str("device_id", device.ID.String()).
			Str("device_name", device.Name).
			Str("status", string(status)).
			Msg("Device poll failed, falling back to simulation")

		return &Outcome{Status: status, Fallback: true}, nil
	}

	return &Outcome{Reading: reading, Status: models.DeviceStatusOnline}, nil
}

func (p *DevicePoller) fetch(ctx context.Context, device *models.Device) (*models.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, device.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", errMalformedPayload, resp.StatusCode)
	}

	var payload devicePayload

	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}

	if err := payload.validate(); err != nil {
		return nil, err
	}

	reading := &models.Reading{
		AQI:         int(math.Round(*payload.Data.AQI)),
		PM25:        *payload.Data.PM25,
		PM10:        *payload.Data.PM10,
		CO2:         *payload.Data.CO2,
		Temperature: *payload.Data.Temperature,
		Humidity:    *payload.Data.Humidity,
		Timestamp:   time.Now().UTC(),
	}
	reading.Category = aqi.CategoryFromAQI(float64(reading.AQI)).Category

	return reading, nil
}

// isTimeout reports whether the poll failed because the device did not
// answer in time rather than answering badly.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
