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

// Package core wires the acquisition engine: storage, schedulers, broadcast
// and the admin HTTP surface.
package core

import (
	"errors"
	"time"

	"github.com/aercore/aqengine/pkg/db"
	"github.com/aercore/aqengine/pkg/detector"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
)

const (
	defaultSimulationInterval = 60 * time.Second
	defaultIoTPollInterval    = 15 * time.Second
	defaultDeviceTimeout      = 5 * time.Second
	defaultHistoryRetention   = 7 * 24 * time.Hour
)

var (
	errNoListenAddr = errors.New("listen_addr is required")
	errNoDatabase   = errors.New("database.dsn is required")
)

// Config is the engine's JSON configuration.
type Config struct {
	ListenAddr string            `json:"listen_addr"`
	Database   db.PostgresConfig `json:"database"`
	NATSURL    string            `json:"nats_url,omitempty"`

	SimulationInterval models.Duration `json:"simulation_interval,omitempty"`
	IoTPollInterval    models.Duration `json:"iot_poll_interval,omitempty"`
	DeviceTimeout      models.Duration `json:"device_timeout,omitempty"`
	HistoryRetention   models.Duration `json:"history_retention,omitempty"`

	// Optional overrides for the built-in threshold sets.
	SimulationThresholds *detector.Thresholds `json:"simulation_thresholds,omitempty"`
	IoTThresholds        *detector.Thresholds `json:"iot_thresholds,omitempty"`

	Logging *logger.Config `json:"logging,omitempty"`
}

// Validate checks required fields and applies interval defaults.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errNoListenAddr
	}

	if c.Database.DSN == "" {
		return errNoDatabase
	}

	if c.SimulationInterval <= 0 {
		c.SimulationInterval = models.Duration(defaultSimulationInterval)
	}

	if c.IoTPollInterval <= 0 {
		c.IoTPollInterval = models.Duration(defaultIoTPollInterval)
	}

	if c.DeviceTimeout <= 0 {
		c.DeviceTimeout = models.Duration(defaultDeviceTimeout)
	}

	if c.HistoryRetention <= 0 {
		c.HistoryRetention = models.Duration(defaultHistoryRetention)
	}

	return nil
}

// SimulationThresholdSet resolves the effective simulation-path thresholds.
func (c *Config) SimulationThresholdSet() detector.Thresholds {
	if c.SimulationThresholds != nil {
		return *c.SimulationThresholds
	}

	return detector.Coarse()
}

// IoTThresholdSet resolves the effective IoT-path thresholds.
func (c *Config) IoTThresholdSet() detector.Thresholds {
	if c.IoTThresholds != nil {
		return *c.IoTThresholds
	}

	return detector.Sensitive()
}
