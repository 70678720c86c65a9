// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package console

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/ffmpeg"
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/probe"
	"github.com/ZSC714725/mediaconverter/internal/format"
	"github.com/ZSC714725/mediaconverter/internal/job"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBar(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)

	b.Set(50)
	assert.Equal(t, "\rProgress: [###############               ]  50%", buf.String())

	buf.Reset()
	b.Set(50)
	assert.Empty(t, buf.String())

	b.Set(250)
	assert.Contains(t, buf.String(), "100%")

	buf.Reset()
	b.Unknown()
	// the shorter line erases the previous one
	assert.Equal(t, "\rProgress: ?"+spaces(len("Progress: [##############################] 100%")-len("Progress: ?")), buf.String())

	buf.Reset()
	b.Finish()
	assert.Equal(t, "\n", buf.String())
	b.Finish()
	assert.Equal(t, "\n", buf.String())
}

func spaces(n int) string {
	return fmt.Sprintf("%*s", n, "")
}

func newController(t *testing.T, body string, prober probe.Prober) (job.Controller, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "ffmpeg")
	script := `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version 6.1.1"
  exit 0
fi
if [ "$1" = "-hide_banner" ]; then
  exit 0
fi
` + body + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	input := filepath.Join(dir, "song.wav")
	require.NoError(t, os.WriteFile(input, []byte("wave"), 0o644))

	ff, err := ffmpeg.New(ffmpeg.Config{Binary: bin, KillTimeout: 500 * time.Millisecond})
	require.NoError(t, err)
	c, err := job.NewController(job.Config{FFmpeg: ff, Prober: prober, StopTimeout: 5 * time.Second})
	require.NoError(t, err)
	return c, input
}

func request(input string) job.Request {
	return job.Request{Input: input, Output: format.DefaultOutput(input, format.MP3), Format: format.MP3}
}

func TestRunSuccess(t *testing.T) {
	c, input := newController(t, `printf 'size=     256kB time=00:00:30.00 bitrate= 64.0kbits/s speed=40x\r' 1>&2
exit 0`, probe.Static{Seconds: 60})

	var out bytes.Buffer
	code := Run(context.Background(), c, request(input), &out)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), " 50%")
	assert.Contains(t, out.String(), "100%")
	assert.Contains(t, out.String(), "Conversion completed: "+filepath.Join(filepath.Dir(input), "song.mp3"))
}

func TestRunFailure(t *testing.T) {
	c, input := newController(t, `echo "Unknown encoder 'libmp3lame'" 1>&2
exit 1`, probe.Static{Seconds: 60})

	var out bytes.Buffer
	code := Run(context.Background(), c, request(input), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Error: transcoding failed")
	assert.Contains(t, out.String(), "Unknown encoder 'libmp3lame'")
}

func TestRunInvalidRequest(t *testing.T) {
	c, input := newController(t, "exit 0", probe.Static{})

	var out bytes.Buffer
	code := Run(context.Background(), c, job.Request{Input: input, Output: "x.mp3"}, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), job.ErrMissingFormat.Error())
}

func TestRunUnknownDuration(t *testing.T) {
	c, input := newController(t, `sleep 1
exit 0`, probe.Static{Err: probe.ErrProbe})

	var out bytes.Buffer
	code := Run(context.Background(), c, request(input), &out)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Progress: ?")
	assert.Contains(t, out.String(), "100%")
}

func TestRunCancel(t *testing.T) {
	c, input := newController(t, "exec sleep 30", probe.Static{Seconds: 60})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	code := Run(ctx, c, request(input), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Conversion stopped")
	assert.NotContains(t, out.String(), "Conversion completed")
}
