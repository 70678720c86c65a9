// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具
//
// Package probe reads the total duration of a media file with ffprobe.

package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrProbe is wrapped by every duration probe failure
var ErrProbe = errors.New("duration probe failed")

// Prober returns the duration of a media file in seconds
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type ffprobe struct {
	binary string
}

// New creates a Prober that runs the given ffprobe binary
func New(binary string) Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &ffprobe{binary: binary}
}

// Args returns the ffprobe arguments for path
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func (f *ffprobe) Duration(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, fmt.Errorf("%w: empty path", ErrProbe)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.binary, Args(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return 0, fmt.Errorf("%w: %v (%s)", ErrProbe, err, msg)
		}
		return 0, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	return ParseDuration(stdout.String())
}

// ParseDuration parses ffprobe's plain decimal output
func ParseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: can't parse %q", ErrProbe, s)
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrProbe, s)
	}
	return d, nil
}

// Static always returns the same duration and error
type Static struct {
	Seconds float64
	Err     error
}

func (s Static) Duration(ctx context.Context, path string) (float64, error) {
	return s.Seconds, s.Err
}
