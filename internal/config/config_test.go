// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  bind: "127.0.0.1:9090"
ffmpeg:
  path: /opt/ffmpeg/bin/ffmpeg
  stale_timeout: 30s
  output:
    block:
      - "^/etc/"
job:
  stop_timeout: 500ms
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Bind)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpeg.Path)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.Probe)
	assert.Equal(t, 30*time.Second, cfg.FFmpeg.StaleTimeout)
	assert.Equal(t, 5*time.Second, cfg.FFmpeg.KillTimeout)
	assert.Equal(t, []string{"^/etc/"}, cfg.FFmpeg.Output.Block)
	assert.Equal(t, 500*time.Millisecond, cfg.Job.StopTimeout)
	assert.Equal(t, 50, cfg.Job.HistorySize)
	assert.Equal(t, "conversion.log", cfg.Log.File)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
