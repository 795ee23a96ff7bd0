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

// Package broadcast fans room and dashboard update events out to
// subscribers. Delivery is fire-and-forget: dropped events are not retried.
package broadcast

import (
	"time"

	"github.com/aercore/aqengine/pkg/models"
	"github.com/google/uuid"
)

// RoomUpdateEvent is delivered to subscribers of a specific room.
type RoomUpdateEvent struct {
	RoomID       uuid.UUID           `json:"room_id"`
	CurrentState models.CurrentState `json:"current_state"`
	Timestamp    time.Time           `json:"timestamp"`
	Source       models.Provenance   `json:"source"`
	DeviceName   string              `json:"device_name,omitempty"`
}

// DashboardUpdateEvent is delivered to every dashboard subscriber.
type DashboardUpdateEvent struct {
	Type         string    `json:"type"`
	RoomID       uuid.UUID `json:"room_id"`
	AQI          int       `json:"aqi"`
	BuildingName string    `json:"building"`
	Timestamp    time.Time `json:"timestamp"`
}

// DashboardUpdateType is the only dashboard event type the engine emits.
const DashboardUpdateType = "room-data-updated"

// Gateway publishes update events. Implementations must not block the
// caller; slow or failed subscribers are dropped.
type Gateway interface {
	BroadcastRoomUpdate(event *RoomUpdateEvent)
	BroadcastDashboardUpdate(event *DashboardUpdateEvent)
}

// Multi fans events out to several gateways.
type Multi []Gateway

func (m Multi) BroadcastRoomUpdate(event *RoomUpdateEvent) {
	for _, g := range m {
		g.BroadcastRoomUpdate(event)
	}
}

func (m Multi) BroadcastDashboardUpdate(event *DashboardUpdateEvent) {
	for _, g := range m {
		g.BroadcastDashboardUpdate(event)
	}
}

// Nop is a Gateway that discards all events.
type Nop struct{}

func (Nop) BroadcastRoomUpdate(*RoomUpdateEvent)           {}
func (Nop) BroadcastDashboardUpdate(*DashboardUpdateEvent) {}
