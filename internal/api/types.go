// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package api

import "github.com/ZSC714725/mediaconverter/internal/format"

// JobRequest for POST /jobs
type JobRequest struct {
	Input string `json:"input"`
	// Output defaults to the input path with the target extension,
	// CRF to 23 and AudioBitrate to 128k
	Output       string `json:"output"`
	Format       string `json:"format"`
	CRF          int    `json:"crf"`
	AudioBitrate string `json:"audio_bitrate"`
}

// Job represents a conversion job in API responses
type Job struct {
	ID           string        `json:"id"`
	Input        string        `json:"input"`
	Output       string        `json:"output"`
	Format       string        `json:"format"`
	CRF          int           `json:"crf,omitempty"`
	AudioBitrate string        `json:"audio_bitrate,omitempty"`
	State        string        `json:"state"`
	CreatedAt    int64         `json:"created_at"`
	FinishedAt   int64         `json:"finished_at,omitempty"`
	ExitCode     int           `json:"exit_code"`
	Error        string        `json:"error,omitempty"`
	Command      []string      `json:"command"`
	Progress     Progress      `json:"progress"`
	Process      *ProcessState `json:"process,omitempty"`
}

// Event is one job event on the SSE stream
type Event struct {
	Kind     string `json:"kind"`
	Percent  int    `json:"percent,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// Progress of a job
type Progress struct {
	Percent      int     `json:"percent"`
	PercentKnown bool    `json:"percent_known"`
	Duration     float64 `json:"duration_seconds"`
	Frame        uint64  `json:"frame"`
	Size         uint64  `json:"size_bytes"`
	Time         float64 `json:"time_seconds"`
	Speed        float64 `json:"speed"`
	Quantizer    float64 `json:"q"`
}

// ProcessState of the FFmpeg child
type ProcessState struct {
	Order   string  `json:"order"`
	State   string  `json:"exec"`
	PID     int     `json:"pid"`
	Runtime int64   `json:"runtime_seconds"`
	LastLog string  `json:"last_logline"`
	Memory  uint64  `json:"memory_bytes"`
	CPU     float64 `json:"cpu_usage"`
}

// JobReport holds the buffered FFmpeg output
type JobReport struct {
	ID  string      `json:"id"`
	Log [][2]string `json:"log"`
}

// FormatInfo describes one target format
type FormatInfo struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Extension   string   `json:"extension"`
	VideoCodec  string   `json:"video_codec,omitempty"`
	VideoFilter string   `json:"video_filter,omitempty"`
	CRF         bool     `json:"crf"`
	AudioCodec  string   `json:"audio_codec"`
	AudioArgs   []string `json:"audio_args,omitempty"`
}

// FormatsResponse for GET /formats
type FormatsResponse struct {
	Video   []FormatInfo    `json:"video"`
	Audio   []FormatInfo    `json:"audio"`
	CRF     []format.Preset `json:"crf"`
	Bitrate []format.Preset `json:"bitrate"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
