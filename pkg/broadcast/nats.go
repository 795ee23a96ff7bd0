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

package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/aercore/aqengine/pkg/logger"
	"github.com/nats-io/nats.go"
)

const (
	roomSubjectPrefix = "aq.rooms."
	dashboardSubject  = "aq.dashboard"
)

// NATSPublisher mirrors update events onto NATS subjects so other services
// can consume them without holding a websocket open.
type NATSPublisher struct {
	conn   *nats.Conn
	logger logger.Logger
}

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url string, log logger.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("aqengine-broadcast"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, logger: log}, nil
}

// BroadcastRoomUpdate publishes onto aq.rooms.<room-id>.
func (p *NATSPublisher) BroadcastRoomUpdate(event *RoomUpdateEvent) {
	p.publish(roomSubjectPrefix+event.RoomID.String(), event)
}

// BroadcastDashboardUpdate publishes onto aq.dashboard.
func (p *NATSPublisher) BroadcastDashboardUpdate(event *DashboardUpdateEvent) {
	p.publish(dashboardSubject, event)
}

func (p *NATSPublisher) publish(subject string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("Failed to marshal event")
		return
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}

// Close flushes pending messages and drops the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to flush NATS connection")
	}

	p.conn.Close()
}
