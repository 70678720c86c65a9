// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package process

import "time"

// Parser parses process output (e.g. FFmpeg stderr).
// Parse returns non-zero when the line carried progress.
type Parser interface {
	Parse(line string) uint64
	ResetStats()
	ResetLog()
	Log() []Line
}

// Line is a timestamped log line
type Line struct {
	Timestamp time.Time
	Data      string
}

type nullParser struct{}

func (p *nullParser) Parse(line string) uint64 { return 1 }
func (p *nullParser) ResetStats()              {}
func (p *nullParser) ResetLog()                {}
func (p *nullParser) Log() []Line              { return nil }
