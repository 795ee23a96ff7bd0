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

package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aercore/aqengine/pkg/broadcast"
	"github.com/aercore/aqengine/pkg/core/api"
	"github.com/aercore/aqengine/pkg/db"
	"github.com/aercore/aqengine/pkg/detector"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/poller"
	"github.com/aercore/aqengine/pkg/scheduler"
	"github.com/aercore/aqengine/pkg/simulator"
	"github.com/aercore/aqengine/pkg/state"
)

const readHeaderTimeout = 10 * time.Second

// Engine owns the whole acquisition pipeline: both scheduler loops, the
// broadcast gateways and the admin HTTP server.
type Engine struct {
	cfg    *Config
	logger logger.Logger

	store   *db.Postgres
	hub     *broadcast.Hub
	natsPub *broadcast.NATSPublisher

	simulationLoop *scheduler.Loop
	iotLoop        *scheduler.Loop

	httpServer *http.Server
}

// NewEngine connects storage and wires the pipeline. The loops are not
// started until Start is called.
func NewEngine(ctx context.Context, cfg *Config, log logger.Logger) (*Engine, error) {
	store, err := db.NewPostgres(ctx, &cfg.Database, log)
	if err != nil {
		return nil, err
	}

	hub := broadcast.NewHub(log)
	gateways := broadcast.Multi{hub}

	var natsPub *broadcast.NATSPublisher

	if cfg.NATSURL != "" {
		natsPub, err = broadcast.NewNATSPublisher(cfg.NATSURL, log)
		if err != nil {
			store.Close()
			return nil, err
		}

		gateways = append(gateways, natsPub)
	}

	updater := state.NewUpdater(store.Rooms(), store.History(), gateways,
		time.Duration(cfg.HistoryRetention), log)
	seeder := state.NewSeeder(store.History(), simulator.New(), log)

	simSvc := scheduler.NewSimulationService(store.Rooms(), simulator.New(),
		detector.New(cfg.SimulationThresholdSet()), updater, log)

	iotSvc := scheduler.NewIoTService(store.Devices(), store.Rooms(),
		poller.New(time.Duration(cfg.DeviceTimeout), log), simulator.New(),
		detector.New(cfg.IoTThresholdSet()), updater, nil, log)

	simulationLoop := scheduler.NewLoop(simSvc, time.Duration(cfg.SimulationInterval), nil, log)
	iotLoop := scheduler.NewLoop(iotSvc, time.Duration(cfg.IoTPollInterval), nil, log)

	apiServer := api.NewServer(simulationLoop, iotLoop, iotSvc, seeder,
		store.Rooms(), store.History(), hub, log)

	return &Engine{
		cfg:            cfg,
		logger:         log,
		store:          store,
		hub:            hub,
		natsPub:        natsPub,
		simulationLoop: simulationLoop,
		iotLoop:        iotLoop,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           apiServer,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Start verifies the schema, starts both loops and serves the admin API.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Bootstrap(ctx); err != nil {
		return err
	}

	e.simulationLoop.Start(ctx)
	e.iotLoop.Start(ctx)

	e.logger.Info().
		Str("listen_addr", e.cfg.ListenAddr).
		Msg("Acquisition engine started")

	go func() {
		if err := e.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	return nil
}

// Stop halts the loops, lets in-flight passes finish and shuts everything
// down in dependency order.
func (e *Engine) Stop(ctx context.Context) error {
	e.simulationLoop.Stop()
	e.iotLoop.Stop()

	var errs []error

	if err := e.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	e.hub.Close()

	if e.natsPub != nil {
		e.natsPub.Close()
	}

	e.store.Close()

	e.logger.Info().Msg("Acquisition engine stopped")

	return errors.Join(errs...)
}
