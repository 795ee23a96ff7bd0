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

// Package api exposes the engine's admin HTTP surface: scheduler status,
// manual triggers, room history and the websocket endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aercore/aqengine/pkg/aqi"
	"github.com/aercore/aqengine/pkg/db"
	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
	"github.com/aercore/aqengine/pkg/scheduler"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	defaultHistoryWindow = 24 * time.Hour
	defaultHistoryLimit  = 500
	maxHistoryLimit      = 5000
)

// LoopController is the slice of scheduler.Loop the API needs.
type LoopController interface {
	ForceRun(ctx context.Context) error
	Status() scheduler.Status
}

// DeviceTrigger triggers a manual poll of one device.
type DeviceTrigger interface {
	PollDevice(ctx context.Context, deviceID uuid.UUID) error
}

// HistorySeeder backfills a room's history with synthetic trend data.
type HistorySeeder interface {
	Backfill(ctx context.Context, room *models.Room, hours int) (int, error)
}

// Server routes the admin HTTP API.
type Server struct {
	router     *mux.Router
	simulation LoopController
	iot        LoopController
	trigger    DeviceTrigger
	seeder     HistorySeeder
	rooms      db.RoomStore
	history    db.HistoryStore
	ws         http.Handler
	logger     logger.Logger
}

// NewServer builds the router. ws handles websocket upgrades and may be nil
// when broadcasting is disabled.
func NewServer(simulation, iot LoopController, trigger DeviceTrigger, seeder HistorySeeder, rooms db.RoomStore, history db.HistoryStore, ws http.Handler, log logger.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		simulation: simulation,
		iot:        iot,
		trigger:    trigger,
		seeder:     seeder,
		rooms:      rooms,
		history:    history,
		ws:         ws,
		logger:     log,
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/simulation/run", s.handleSimulationRun).Methods(http.MethodPost)
	s.router.HandleFunc("/api/iot/poll", s.handleIoTPoll).Methods(http.MethodPost)
	s.router.HandleFunc("/api/iot/poll/{deviceID}", s.handleDevicePoll).Methods(http.MethodPost)
	s.router.HandleFunc("/api/rooms/{id}", s.handleRoom).Methods(http.MethodGet)
	s.router.HandleFunc("/api/rooms/{id}/history", s.handleRoomHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/api/rooms/{id}/seed", s.handleRoomSeed).Methods(http.MethodPost)

	if s.ws != nil {
		s.router.Handle("/api/ws", s.ws).Methods(http.MethodGet)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]scheduler.Status{
		"simulation": s.simulation.Status(),
		"iot":        s.iot.Status(),
	})
}

func (s *Server) handleSimulationRun(w http.ResponseWriter, r *http.Request) {
	s.forceRun(w, r, s.simulation)
}

func (s *Server) handleIoTPoll(w http.ResponseWriter, r *http.Request) {
	s.forceRun(w, r, s.iot)
}

func (s *Server) forceRun(w http.ResponseWriter, r *http.Request, loop LoopController) {
	if err := loop.ForceRun(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Manual scheduler pass failed")
		s.writeError(w, http.StatusInternalServerError, "pass failed")

		return
	}

	s.writeJSON(w, http.StatusOK, loop.Status())
}

func (s *Server) handleDevicePoll(w http.ResponseWriter, r *http.Request) {
	deviceID, err := uuid.Parse(mux.Vars(r)["deviceID"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}

	switch err := s.trigger.PollDevice(r.Context(), deviceID); {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "polled"})
	case errors.Is(err, db.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "device not found")
	case errors.Is(err, scheduler.ErrDeviceInactive):
		s.writeError(w, http.StatusConflict, "device is not active")
	default:
		s.logger.Error().Err(err).Str("device_id", deviceID.String()).Msg("Manual device poll failed")
		s.writeError(w, http.StatusInternalServerError, "poll failed")
	}
}

// handleRoom returns a room with its current state classified per parameter.
func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	room, err := s.rooms.Get(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "room not found")
			return
		}

		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("Failed to load room")
		s.writeError(w, http.StatusInternalServerError, "failed to load room")

		return
	}

	response := map[string]interface{}{
		"room":     room,
		"category": aqi.CategoryFromAQI(float64(room.CurrentState.AQI)),
	}

	if !room.CurrentState.UpdatedAt.IsZero() {
		response["parameters"] = map[string]aqi.ParameterStatus{
			"pm25":        aqi.EvaluateParameter("pm25", room.CurrentState.PM25),
			"pm10":        aqi.EvaluateParameter("pm10", room.CurrentState.PM10),
			"co2":         aqi.EvaluateParameter("co2", room.CurrentState.CO2),
			"temperature": aqi.EvaluateParameter("temperature", room.CurrentState.Temperature),
			"humidity":    aqi.EvaluateParameter("humidity", room.CurrentState.Humidity),
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRoomHistory(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	if _, err := s.rooms.Get(r.Context(), roomID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "room not found")
			return
		}

		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("Failed to load room")
		s.writeError(w, http.StatusInternalServerError, "failed to load room")

		return
	}

	to := time.Now()
	from := to.Add(-defaultHistoryWindow)
	limit := defaultHistoryLimit

	query := r.URL.Query()

	if raw := query.Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
	}

	if raw := query.Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}

		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
	}

	records, err := s.history.ListRange(r.Context(), roomID, from, to, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("Failed to list history")
		s.writeError(w, http.StatusInternalServerError, "failed to list history")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id": roomID,
		"from":    from,
		"to":      to,
		"count":   len(records),
		"history": records,
	})
}

const (
	defaultSeedHours = 24
	maxSeedHours     = 7 * 24
)

func (s *Server) handleRoomSeed(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	room, err := s.rooms.Get(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "room not found")
			return
		}

		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("Failed to load room")
		s.writeError(w, http.StatusInternalServerError, "failed to load room")

		return
	}

	hours := defaultSeedHours

	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err = strconv.Atoi(raw)
		if err != nil || hours <= 0 || hours > maxSeedHours {
			s.writeError(w, http.StatusBadRequest, "invalid hours")
			return
		}
	}

	written, err := s.seeder.Backfill(r.Context(), room, hours)
	if err != nil {
		s.logger.Error().Err(err).Str("room_id", roomID.String()).Msg("Failed to seed history")
		s.writeError(w, http.StatusInternalServerError, "failed to seed history")

		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"room_id": roomID,
		"hours":   hours,
		"records": written,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
