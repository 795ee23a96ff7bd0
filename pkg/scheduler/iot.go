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

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aercore/aqengine/pkg/db"
	"github.com/aercore/aqengine/pkg/detector"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
	"github.com/aercore/aqengine/pkg/poller"
	"github.com/aercore/aqengine/pkg/simulator"
	"github.com/aercore/aqengine/pkg/state"
	"github.com/google/uuid"
)

// ErrDeviceInactive is returned when a manual poll targets a disabled device.
var ErrDeviceInactive = errors.New("device is not active")

// IoTService polls every active device, fans the reading out to the device's
// rooms and falls back to simulated data when a device is offline or errored.
// Real readings go through the sensitive threshold set.
type IoTService struct {
	devices   db.DeviceStore
	rooms     db.RoomStore
	poller    *poller.DevicePoller
	generator *simulator.Generator
	detector  *detector.Detector
	updater   *state.Updater
	clock     Clock
	logger    logger.Logger

	inFlight sync.Map   // room ID -> struct{}
	genMu    sync.Mutex // the generator rng is not goroutine safe
}

// NewIoTService wires the IoT acquisition pass.
func NewIoTService(devices db.DeviceStore, rooms db.RoomStore, p *poller.DevicePoller, gen *simulator.Generator, det *detector.Detector, updater *state.Updater, clock Clock, log logger.Logger) *IoTService {
	if clock == nil {
		clock = NewClock()
	}

	return &IoTService{
		devices:   devices,
		rooms:     rooms,
		poller:    p,
		generator: gen,
		detector:  det,
		updater:   updater,
		clock:     clock,
		logger:    log,
	}
}

func (s *IoTService) Name() string { return "iot" }

// Run polls all active devices concurrently and waits for every device's
// rooms to be updated.
func (s *IoTService) Run(ctx context.Context) error {
	devices, err := s.devices.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active devices: %w", err)
	}

	var wg sync.WaitGroup

	for _, device := range devices {
		wg.Add(1)

		go func(device *models.Device) {
			defer wg.Done()

			s.pollDevice(ctx, device)
		}(device)
	}

	wg.Wait()

	return nil
}

// PollDevice triggers a single device poll outside the tick schedule.
func (s *IoTService) PollDevice(ctx context.Context, deviceID uuid.UUID) error {
	device, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		return err
	}

	if !device.IsActive {
		return ErrDeviceInactive
	}

	s.pollDevice(ctx, device)

	return nil
}

func (s *IoTService) pollDevice(ctx context.Context, device *models.Device) {
	outcome, err := s.poller.Poll(ctx, device)
	if err != nil {
		// Only ErrPollInFlight reaches here; the previous poll owns the device.
		s.logger.Debug().
			Str("device_id", device.ID.String()).
			Msg("Skipping device, previous poll still in flight")

		return
	}

	device.Status = outcome.Status
	if outcome.Status == models.DeviceStatusOnline {
		device.LastUpdate = s.clock.Now()
	}

	if err := s.devices.UpdateStatus(ctx, device); err != nil {
		s.logger.Warn().
			Err(err).
			Str("device_id", device.ID.String()).
			Msg("Failed to update device status")
	}

	rooms, err := s.rooms.ListActiveByDevice(ctx, device.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("device_id", device.ID.String()).
			Msg("Failed to list rooms for device")

		return
	}

	var wg sync.WaitGroup

	for _, room := range rooms {
		if _, loaded := s.inFlight.LoadOrStore(room.ID, struct{}{}); loaded {
			continue
		}

		reading, source := s.readingFor(room, outcome)

		wg.Add(1)

		go func(room *models.Room, reading models.Reading, source models.Provenance) {
			defer wg.Done()
			defer s.inFlight.Delete(room.ID)

			s.applyIfSignificant(ctx, room, &reading, source, device.Name)
		}(room, reading, source)
	}

	wg.Wait()
}

// readingFor picks the device reading, or a fresh simulated one per room when
// the poll asked for fallback.
func (s *IoTService) readingFor(room *models.Room, outcome *poller.Outcome) (models.Reading, models.Provenance) {
	if !outcome.Fallback {
		return *outcome.Reading, models.ProvenanceIoT
	}

	s.genMu.Lock()
	reading := s.generator.Generate(simulator.RoomTypeFromName(room.Name))
	s.genMu.Unlock()

	return reading, models.ProvenanceFallback
}

func (s *IoTService) applyIfSignificant(ctx context.Context, room *models.Room, reading *models.Reading, source models.Provenance, deviceName string) {
	if !s.detector.IsSignificant(room.CurrentReading(), reading) {
		return
	}

	if err := s.updater.Apply(ctx, room, reading, source, deviceName); err != nil {
		s.logger.Error().
			Err(err).
			Str("room_id", room.ID.String()).
			Str("room_name", room.Name).
			Msg("Failed to apply device reading")
	}
}
