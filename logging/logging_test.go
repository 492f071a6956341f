/*
 * logging_test.go, part of chgbench.
 *
 * Copyright 2024 The chgbench authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rmera/chgbench"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJSON(Te *testing.T) {
	var b bytes.Buffer
	log, err := NewWithWriter("warn", "json", &b)
	require.NoError(Te, err)
	log.Info("hidden")
	log.Warn("skipping dataset", zap.String("key", "mp-13"))
	require.NoError(Te, log.Sync())
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(Te, lines, 1)
	var entry map[string]any
	require.NoError(Te, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(Te, "warn", entry["level"])
	assert.Equal(Te, "skipping dataset", entry["msg"])
	assert.Equal(Te, "mp-13", entry["key"])
	assert.Contains(Te, entry, "timestamp")
}

func TestConsole(Te *testing.T) {
	var b bytes.Buffer
	log, err := NewWithWriter("debug", "console", &b)
	require.NoError(Te, err)
	log.Debug("compressing", zap.Int("datasets", 3))
	assert.Contains(Te, b.String(), "DEBUG")
	assert.Contains(Te, b.String(), `{"datasets": 3}`)
}

func TestBadSettings(Te *testing.T) {
	var ce *chgbench.ConfigError
	_, err := New("loud", "json")
	assert.True(Te, errors.As(err, &ce))
	_, err = New("info", "xml")
	assert.True(Te, errors.As(err, &ce))
}
