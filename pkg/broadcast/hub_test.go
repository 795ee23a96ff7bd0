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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aercore/aqengine/pkg/logger"
	"github.com/aercore/aqengine/pkg/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + query

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)

	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", want, hub.ClientCount())
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var env envelope

	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &env))

	return env
}

func TestHubRoomUpdateReachesSubscriber(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	roomID := uuid.New()
	otherRoom := uuid.New()

	subscriber := dialHub(t, server, "?room="+roomID.String())
	bystander := dialHub(t, server, "?room="+otherRoom.String())

	waitForClients(t, hub, 2)

	hub.BroadcastRoomUpdate(&RoomUpdateEvent{
		RoomID: roomID,
		CurrentState: models.CurrentState{
			AQI:  42,
			PM25: 9.8,
		},
		Timestamp: time.Now(),
		Source:    models.ProvenanceSimulation,
	})

	env := readEnvelope(t, subscriber)
	assert.Equal(t, "room-update", env.Event)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, roomID.String(), data["room_id"])

	// The bystander subscribed to a different room and must see nothing.
	require.NoError(t, bystander.SetReadDeadline(time.Now().Add(200*time.Millisecond)))

	_, _, err := bystander.ReadMessage()
	assert.Error(t, err)
}

func TestHubDashboardUpdateReachesEveryone(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	roomClient := dialHub(t, server, "?room="+uuid.New().String())
	dashboardClient := dialHub(t, server, "")

	waitForClients(t, hub, 2)

	hub.BroadcastDashboardUpdate(&DashboardUpdateEvent{
		Type:         DashboardUpdateType,
		RoomID:       uuid.New(),
		AQI:          77,
		BuildingName: "Engineering",
		Timestamp:    time.Now(),
	})

	for _, conn := range []*websocket.Conn{roomClient, dashboardClient} {
		env := readEnvelope(t, conn)
		assert.Equal(t, "dashboard-update", env.Event)

		data, ok := env.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, DashboardUpdateType, data["type"])
		assert.Equal(t, float64(77), data["aqi"])
	}
}

func TestHubRejectsInvalidRoomID(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?room=not-a-uuid"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)

	if conn != nil {
		_ = conn.Close()
	}

	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHubClientDisconnectIsReaped(t *testing.T) {
	hub := NewHub(logger.NewTestLogger())
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server, "")
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}
