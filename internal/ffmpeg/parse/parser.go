// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package parse

import (
	"container/ring"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/process"
)

// Progress holds FFmpeg progress info parsed from stderr
type Progress struct {
	Frame     uint64  `json:"frame"`
	Size      uint64  `json:"size_bytes"`
	Time      float64 `json:"time_seconds"`
	Speed     float64 `json:"speed"`
	Quantizer float64 `json:"q"`
	// Percent is only meaningful when PercentKnown is set
	Percent      int     `json:"percent"`
	PercentKnown bool    `json:"percent_known"`
}

// Parser implements process.Parser and parses FFmpeg stderr
type Parser interface {
	process.Parser
	Progress() Progress
	Duration() float64
}

type parser struct {
	re struct {
		frame     *regexp.Regexp
		quantizer *regexp.Regexp
		size      *regexp.Regexp
		time      *regexp.Regexp
		speed     *regexp.Regexp
	}

	log      *ring.Ring
	logLines int

	duration  float64
	onPercent func(int)

	progress Progress
	lock     sync.RWMutex
}

// Config for the parser
type Config struct {
	LogLines int
	// Duration of the input in seconds, 0 if unknown
	Duration float64
	// OnPercent is called from the reading goroutine whenever the
	// percentage increases
	OnPercent func(percent int)
}

// New creates a Parser
func New(config Config) Parser {
	p := &parser{
		logLines:  config.LogLines,
		duration:  config.Duration,
		onPercent: config.OnPercent,
	}
	if p.logLines <= 0 {
		p.logLines = 100
	}
	if p.duration < 0 || math.IsNaN(p.duration) || math.IsInf(p.duration, 0) {
		p.duration = 0
	}
	p.re.frame = regexp.MustCompile(`frame=\s*([0-9]+)`)
	p.re.quantizer = regexp.MustCompile(`q=\s*(-?[0-9\.]+)`)
	p.re.size = regexp.MustCompile(`size=\s*([0-9]+)(?:kB|KiB)`)
	p.re.time = regexp.MustCompile(`time=\s*([0-9]+):([0-9]{2}):([0-9]{2})\.([0-9]+)`) // 支持 .0 .00 .000 等
	p.re.speed = regexp.MustCompile(`speed=\s*([0-9\.]+)x`)

	p.log = ring.New(p.logLines)
	p.progress.PercentKnown = p.duration > 0
	return p
}

func (p *parser) Parse(line string) uint64 {
	// 纯音频输出没有 frame=，只有 size= 和 time=
	isProgress := strings.Contains(line, "time=") || strings.Contains(line, "frame=")

	p.lock.Lock()
	p.log.Value = process.Line{Timestamp: time.Now(), Data: line}
	p.log = p.log.Next()
	if !isProgress {
		p.lock.Unlock()
		return 0
	}

	if m := p.re.frame.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Frame = x
		}
	}
	if m := p.re.quantizer.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Quantizer = x
		}
	}
	if m := p.re.size.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x * 1024
		}
	}
	if m := p.re.speed.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Speed = x
		}
	}

	changed := false
	if m := p.re.time.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		elapsed := h*3600 + mm*60 + s

		frac := 0.0
		if x, err := strconv.ParseUint(m[4], 10, 64); err == nil {
			frac = float64(x) / math.Pow10(len(m[4]))
		}
		p.progress.Time = float64(elapsed) + frac

		// 百分比只用整秒计算
		if p.duration > 0 {
			pct := percent(elapsed, p.duration)
			if pct > p.progress.Percent {
				p.progress.Percent = pct
				changed = true
			}
		}
	}
	pct := p.progress.Percent
	p.lock.Unlock()

	if changed && p.onPercent != nil {
		p.onPercent(pct)
	}
	return 1
}

func percent(elapsed int, duration float64) int {
	pct := int(math.Floor(float64(elapsed) / duration * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func (p *parser) ResetStats() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = Progress{PercentKnown: p.duration > 0}
}

func (p *parser) ResetLog() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.log = ring.New(p.logLines)
}

func (p *parser) Log() []process.Line {
	var out []process.Line
	p.lock.RLock()
	p.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(process.Line))
		}
	})
	p.lock.RUnlock()
	return out
}

func (p *parser) Progress() Progress {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.progress
}

func (p *parser) Duration() float64 {
	return p.duration
}
