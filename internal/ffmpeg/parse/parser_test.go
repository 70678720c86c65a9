// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package parse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(duration float64) (Parser, *[]int) {
	var got []int
	p := New(Config{
		Duration:  duration,
		OnPercent: func(pct int) { got = append(got, pct) },
	})
	return p, &got
}

func TestParseVideoProgressLine(t *testing.T) {
	p, got := collect(12.0)

	n := p.Parse("frame=  150 fps= 25 q=28.0 size=     512kB time=00:00:06.00 bitrate= 699.1kbits/s speed=2.50x")
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, []int{50}, *got)

	prog := p.Progress()
	assert.Equal(t, uint64(150), prog.Frame)
	assert.Equal(t, uint64(512*1024), prog.Size)
	assert.InDelta(t, 6.0, prog.Time, 1e-9)
	assert.InDelta(t, 2.5, prog.Speed, 1e-9)
	assert.InDelta(t, 28.0, prog.Quantizer, 1e-9)
	assert.Equal(t, 50, prog.Percent)
	assert.True(t, prog.PercentKnown)
}

func TestParseAudioOnlyLine(t *testing.T) {
	p, got := collect(120.0)

	n := p.Parse("size=    1024kB time=00:01:00.50 bitrate= 139.8kbits/s speed=40.1x")
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, []int{50}, *got)
	assert.InDelta(t, 60.5, p.Progress().Time, 1e-9)
}

func TestParseNonProgressLine(t *testing.T) {
	p, got := collect(12.0)

	assert.Equal(t, uint64(0), p.Parse("Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'clip.mov':"))
	assert.Empty(t, *got)
	assert.Len(t, p.Log(), 1)
}

func TestPercentIsMonotonicAndClamped(t *testing.T) {
	p, got := collect(12.0)

	for _, ts := range []string{"00:00:03.00", "00:00:06.00", "00:00:06.50", "00:00:04.00", "00:00:30.00", "00:00:40.00"} {
		p.Parse("frame=1 time=" + ts)
	}

	assert.Equal(t, []int{25, 50, 100}, *got)
	assert.Equal(t, 100, p.Progress().Percent)
}

func TestPercentIgnoresFraction(t *testing.T) {
	p, got := collect(10.0)

	p.Parse("time=00:00:01.99")
	assert.Equal(t, []int{10}, *got)
}

func TestPercentWithHours(t *testing.T) {
	p, got := collect(7200.0)

	p.Parse("time=01:00:00.00")
	assert.Equal(t, []int{50}, *got)
}

func TestUnknownDurationSuppressesPercent(t *testing.T) {
	for _, d := range []float64{0, -5} {
		p, got := collect(d)
		p.Parse("frame=10 time=00:00:06.00")

		assert.Empty(t, *got)
		assert.False(t, p.Progress().PercentKnown)
		assert.Equal(t, 0, p.Progress().Percent)
		assert.InDelta(t, 6.0, p.Progress().Time, 1e-9)
	}
}

func TestTimeNotAvailable(t *testing.T) {
	p, got := collect(10.0)
	p.Parse("frame=    0 fps=0.0 q=0.0 size=       0kB time=N/A bitrate=N/A speed=N/A")
	assert.Empty(t, *got)
}

func TestLogRing(t *testing.T) {
	p := New(Config{LogLines: 3})
	for i := 0; i < 5; i++ {
		p.Parse(fmt.Sprintf("line %d", i))
	}

	lines := p.Log()
	require.Len(t, lines, 3)
	assert.Equal(t, "line 2", lines[0].Data)
	assert.Equal(t, "line 4", lines[2].Data)

	p.ResetLog()
	assert.Empty(t, p.Log())
}

func TestResetStats(t *testing.T) {
	p, _ := collect(12.0)
	p.Parse("frame=5 time=00:00:06.00")
	p.ResetStats()

	prog := p.Progress()
	assert.Equal(t, uint64(0), prog.Frame)
	assert.Equal(t, 0, prog.Percent)
	assert.True(t, prog.PercentKnown)
}
