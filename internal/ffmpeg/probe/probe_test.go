// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package probe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		err  bool
	}{
		{"12.000000\n", 12.0, false},
		{"  3600.5 ", 3600.5, false},
		{"N/A\n", 0, true},
		{"", 0, true},
		{"-1", 0, true},
		{"NaN", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrProbe, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"clip.mov",
	}, Args("clip.mov"))
}

func TestMissingBinary(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "no-ffprobe"))
	_, err := p.Duration(context.Background(), "clip.mov")
	assert.ErrorIs(t, err, ErrProbe)
}

func TestEmptyPath(t *testing.T) {
	_, err := New("").Duration(context.Background(), "")
	assert.ErrorIs(t, err, ErrProbe)
}

func TestFakeFFprobe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\nfor last; do :; done\nif [ \"$last\" = bad.mov ]; then echo 'bad.mov: Invalid data' 1>&2; exit 1; fi\necho 12.000000\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	p := New(bin)

	d, err := p.Duration(context.Background(), "clip.mov")
	require.NoError(t, err)
	assert.InDelta(t, 12.0, d, 1e-9)

	_, err = p.Duration(context.Background(), "bad.mov")
	assert.ErrorIs(t, err, ErrProbe)
	assert.Contains(t, err.Error(), "Invalid data")
}

func TestStatic(t *testing.T) {
	d, err := Static{Seconds: 4}.Duration(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 4.0, d)
}
