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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aercore/aqengine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	ListenAddr string          `json:"listen_addr"`
	Interval   models.Duration `json:"interval"`
	MaxRetries int             `json:"max_retries"`
	Verbose    bool            `json:"verbose"`
}

var errMissingListenAddr = errors.New("listen_addr is required")

type validatedConfig struct {
	ListenAddr string `json:"listen_addr"`
}

func (c *validatedConfig) Validate() error {
	if c.ListenAddr == "" {
		return errMissingListenAddr
	}

	return nil
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeTempConfig(t, `{
		"listen_addr": ":8090",
		"interval": "30s",
		"max_retries": 3,
		"verbose": true
	}`)

	var cfg sampleConfig

	loader := NewConfig(nil)
	require.NoError(t, loader.LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, models.Duration(30*time.Second), cfg.Interval)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.True(t, cfg.Verbose)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg sampleConfig

	loader := NewConfig(nil)
	err := loader.LoadAndValidate(context.Background(), "/nonexistent/config.json", &cfg)
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeTempConfig(t, `{"listen_addr": `)

	var cfg sampleConfig

	loader := NewConfig(nil)
	err := loader.LoadAndValidate(context.Background(), path, &cfg)
	assert.Error(t, err)
}

func TestValidatorIsInvoked(t *testing.T) {
	path := writeTempConfig(t, `{}`)

	var cfg validatedConfig

	loader := NewConfig(nil)
	err := loader.LoadAndValidate(context.Background(), path, &cfg)
	assert.ErrorIs(t, err, errMissingListenAddr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("AQENGINE_LISTEN_ADDR", ":9999")
	t.Setenv("AQENGINE_MAX_RETRIES", "5")
	t.Setenv("AQENGINE_VERBOSE", "true")
	t.Setenv("AQENGINE_INTERVAL", "45s")

	var cfg sampleConfig

	loader := NewConfig(nil)
	require.NoError(t, loader.LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, models.Duration(45*time.Second), cfg.Interval)
}

func TestInvalidConfigSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	var cfg sampleConfig

	loader := NewConfig(nil)
	err := loader.LoadAndValidate(context.Background(), "", &cfg)
	assert.ErrorIs(t, err, errInvalidConfigSource)
}
