// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryFormatHasProfile(t *testing.T) {
	all := All()
	require.Len(t, all, len(profiles))

	for _, f := range all {
		p, ok := f.Profile()
		require.True(t, ok, "missing profile for %s", f)
		assert.NotEmpty(t, p.AudioCodec, "audio codec for %s", f)
		if p.Kind == KindVideo {
			assert.NotEmpty(t, p.VideoCodec, "video codec for %s", f)
		} else {
			assert.Empty(t, p.VideoCodec, "audio target %s has a video codec", f)
		}
	}

	for _, f := range Video() {
		assert.Equal(t, KindVideo, f.Kind())
	}
	for _, f := range Audio() {
		assert.Equal(t, KindAudio, f.Kind())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"mp4", MP4, false},
		{"MP4", MP4, false},
		{" .Flac ", FLAC, false},
		{"", None, false},
		{"wmv", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileIsCopied(t *testing.T) {
	p, _ := MP3.Profile()
	p.AudioArgs[0] = "-changed"

	again, _ := MP3.Profile()
	assert.Equal(t, []string{"-q:a", "2"}, again.AudioArgs)
}

func TestGIFProfile(t *testing.T) {
	p, ok := GIF.Profile()
	require.True(t, ok)
	assert.Equal(t, "gif", p.VideoCodec)
	assert.Equal(t, "fps=10,scale=640:-1:flags=lanczos", p.VideoFilter)
	assert.False(t, p.CRF)
}

func TestEncoders(t *testing.T) {
	assert.Equal(t, []string{"libvpx-vp9", "aac"}, WEBM.Encoders())
	assert.Equal(t, []string{"libvorbis"}, OGG.Encoders())
	assert.Nil(t, Format("wmv").Encoders())
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "/videos/clip.mp4", DefaultOutput("/videos/clip.mov", MP4))
	assert.Equal(t, "song.mp3", DefaultOutput("song", MP3))
	assert.Equal(t, "a.b.gif", DefaultOutput("a.b.mkv", GIF))
}

func TestPresetsHaveOneDefault(t *testing.T) {
	for _, presets := range [][]Preset{CRFPresets(), BitratePresets()} {
		n := 0
		for _, p := range presets {
			if p.Default {
				n++
			}
		}
		assert.Equal(t, 1, n)
	}
}
