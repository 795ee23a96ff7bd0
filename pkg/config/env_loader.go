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
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aercore/aqengine/pkg/models"
)

var errEnvInvalidTarget = errors.New("env loader target must be a non-nil struct pointer")

// EnvConfigLoader populates a config struct from environment variables. Keys
// are derived from json tags: field "listen_addr" in a struct under
// "database" becomes PREFIX_DATABASE_LISTEN_ADDR.
type EnvConfigLoader struct {
	prefix string
}

// NewEnvConfigLoader creates an environment-based loader with a key prefix.
func NewEnvConfigLoader(prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{prefix: prefix}
}

// Load implements ConfigLoader. The path argument is unused.
func (l *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errEnvInvalidTarget
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return errEnvInvalidTarget
	}

	return l.loadStruct(v, strings.TrimSuffix(l.prefix, "_"))
}

func (l *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		tag := jsonTagName(t.Field(i))

		if tag == "" || !field.CanSet() {
			continue
		}

		key := prefix + "_" + strings.ToUpper(tag)

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}

			if err := l.loadStruct(field.Elem(), key); err != nil {
				return err
			}

			continue
		}

		if field.Kind() == reflect.Struct {
			if err := l.loadStruct(field, key); err != nil {
				return err
			}

			continue
		}

		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}

		if err := setField(field, raw); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}

	return nil
}

func jsonTagName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}

	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}

	return tag
}

var durationType = reflect.TypeOf(models.Duration(0))

func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}

		field.SetInt(int64(d))

		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}

		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}

		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}

	return nil
}
