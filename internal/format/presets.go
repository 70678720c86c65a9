// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package format

// Preset is a named quality choice offered to the user
type Preset struct {
	Label   string `json:"label"`
	CRF     int    `json:"crf,omitempty"`
	Bitrate string `json:"bitrate,omitempty"`
	Default bool   `json:"default,omitempty"`
}

const (
	MinCRF = 0
	MaxCRF = 51

	DefaultCRF = 23
)

// CRFPresets 视频质量，数值越小质量越高
func CRFPresets() []Preset {
	return []Preset{
		{Label: "Maximum (CRF 18)", CRF: 18},
		{Label: "Excellent (CRF 20)", CRF: 20},
		{Label: "Good (CRF 23)", CRF: DefaultCRF, Default: true},
		{Label: "Medium (CRF 26)", CRF: 26},
		{Label: "Economy (CRF 28)", CRF: 28},
	}
}

// BitratePresets 音频码率
func BitratePresets() []Preset {
	return []Preset{
		{Label: "High (320 kbps)", Bitrate: "320k"},
		{Label: "Good (256 kbps)", Bitrate: "256k"},
		{Label: "Standard (192 kbps)", Bitrate: "192k"},
		{Label: "Basic (128 kbps)", Bitrate: DefaultAudioBitrate, Default: true},
		{Label: "Economy (64 kbps)", Bitrate: "64k"},
	}
}
