// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package job

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ZSC714725/mediaconverter/internal/format"
)

// Request describes one conversion
type Request struct {
	Input  string        `json:"input"`
	Output string        `json:"output"`
	Format format.Format `json:"format"`
	// CRF 0 means unset, only used by video targets
	CRF int `json:"crf"`
	// AudioBitrate like "128k", empty means unset
	AudioBitrate string `json:"audio_bitrate"`
}

// Validate checks the request against the local filesystem
func (r Request) Validate() error {
	if r.Input == "" {
		return fmt.Errorf("%w: no input given", ErrInvalidInput)
	}
	info, err := os.Stat(r.Input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidInput, r.Input)
	}

	if r.Format == format.None {
		return ErrMissingFormat
	}
	if !r.Format.Valid() {
		return fmt.Errorf("%w: %s", format.ErrUnknownFormat, r.Format)
	}

	if r.Output == "" {
		return fmt.Errorf("%w: no output given", ErrInvalidOutput)
	}
	if samePath(r.Input, r.Output) {
		return fmt.Errorf("%w: output would overwrite the input", ErrInvalidOutput)
	}

	if r.CRF < format.MinCRF || r.CRF > format.MaxCRF {
		return fmt.Errorf("%w: crf %d not in %d..%d", ErrInvalidQuality, r.CRF, format.MinCRF, format.MaxCRF)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// CreateCommand builds the FFmpeg args for the request
func (r Request) CreateCommand() []string {
	p, _ := r.Format.Profile()

	cmd := []string{"-y", "-i", r.Input}

	switch p.Kind {
	case format.KindVideo:
		cmd = append(cmd, "-c:v", p.VideoCodec)
		if p.CRF && r.CRF > 0 {
			cmd = append(cmd, "-crf", strconv.Itoa(r.CRF))
		}
		if p.VideoFilter != "" {
			cmd = append(cmd, "-vf", p.VideoFilter)
		}
		bitrate := r.AudioBitrate
		if bitrate == "" {
			bitrate = format.DefaultAudioBitrate
		}
		cmd = append(cmd, "-c:a", p.AudioCodec, "-b:a", bitrate)
	case format.KindAudio:
		cmd = append(cmd, "-vn", "-c:a", p.AudioCodec)
		cmd = append(cmd, p.AudioArgs...)
		if r.AudioBitrate != "" {
			cmd = append(cmd, "-b:a", r.AudioBitrate)
		}
	}

	return append(cmd, r.Output)
}
