// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具
//
// Package format describes the closed set of conversion targets and the
// codec/filter configuration FFmpeg needs for each of them.

package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned by Parse for unsupported targets
var ErrUnknownFormat = errors.New("unknown target format")

// Kind is the target family
type Kind int

const (
	KindVideo Kind = iota
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Format is a target container identifier. The zero value means "none selected".
type Format string

const (
	None Format = ""

	MP4  Format = "mp4"
	AVI  Format = "avi"
	MOV  Format = "mov"
	GIF  Format = "gif"
	WEBM Format = "webm"
	MKV  Format = "mkv"

	MP3  Format = "mp3"
	WAV  Format = "wav"
	FLAC Format = "flac"
	OGG  Format = "ogg"
	AAC  Format = "aac"
)

// DefaultAudioBitrate is used for the audio track of video targets when
// no bitrate was chosen.
const DefaultAudioBitrate = "128k"

// Profile is the FFmpeg configuration for one target
type Profile struct {
	Kind Kind

	// Video targets
	VideoCodec  string
	VideoFilter string
	CRF         bool

	// Both families
	AudioCodec string
	AudioArgs  []string
}

var (
	videoFormats = []Format{MP4, AVI, MOV, GIF, WEBM, MKV}
	audioFormats = []Format{MP3, WAV, FLAC, OGG, AAC}

	profiles = map[Format]Profile{
		MP4:  {Kind: KindVideo, VideoCodec: "libx264", CRF: true, AudioCodec: "aac"},
		AVI:  {Kind: KindVideo, VideoCodec: "libx264", CRF: true, AudioCodec: "aac"},
		MOV:  {Kind: KindVideo, VideoCodec: "libx264", CRF: true, AudioCodec: "aac"},
		MKV:  {Kind: KindVideo, VideoCodec: "libx264", CRF: true, AudioCodec: "aac"},
		GIF:  {Kind: KindVideo, VideoCodec: "gif", VideoFilter: "fps=10,scale=640:-1:flags=lanczos", AudioCodec: "aac"},
		WEBM: {Kind: KindVideo, VideoCodec: "libvpx-vp9", CRF: true, AudioCodec: "aac"},

		MP3:  {Kind: KindAudio, AudioCodec: "libmp3lame", AudioArgs: []string{"-q:a", "2"}},
		WAV:  {Kind: KindAudio, AudioCodec: "pcm_s16le"},
		FLAC: {Kind: KindAudio, AudioCodec: "flac"},
		OGG:  {Kind: KindAudio, AudioCodec: "libvorbis"},
		AAC:  {Kind: KindAudio, AudioCodec: "aac"},
	}
)

// Parse resolves a user supplied identifier such as "MP4" or ".mp3"
func Parse(s string) (Format, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	if s == "" {
		return None, nil
	}
	f := Format(s)
	if _, ok := profiles[f]; !ok {
		return None, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// All returns every target, video first
func All() []Format {
	out := make([]Format, 0, len(videoFormats)+len(audioFormats))
	out = append(out, videoFormats...)
	return append(out, audioFormats...)
}

// Video returns the video targets in display order
func Video() []Format {
	return append([]Format(nil), videoFormats...)
}

// Audio returns the audio targets in display order
func Audio() []Format {
	return append([]Format(nil), audioFormats...)
}

// Valid reports whether f is a known target
func (f Format) Valid() bool {
	_, ok := profiles[f]
	return ok
}

// Kind returns the target family. Unknown formats report KindVideo, check Valid first.
func (f Format) Kind() Kind {
	return profiles[f].Kind
}

// Profile returns the codec/filter configuration of f
func (f Format) Profile() (Profile, bool) {
	p, ok := profiles[f]
	if !ok {
		return Profile{}, false
	}
	p.AudioArgs = append([]string(nil), p.AudioArgs...)
	return p, true
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}

// Encoders returns the encoder names FFmpeg must provide for f
func (f Format) Encoders() []string {
	p, ok := profiles[f]
	if !ok {
		return nil
	}
	var out []string
	if p.Kind == KindVideo {
		out = append(out, p.VideoCodec)
	}
	return append(out, p.AudioCodec)
}

// DefaultOutput derives an output path next to input with the extension of f
func DefaultOutput(input string, f Format) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + f.Extension()
}
