// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具
//
// Package console renders a conversion job on a terminal.

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/job"
)

const (
	barWidth        = 30
	unknownInterval = 250 * time.Millisecond
)

// Bar draws "Progress: [####      ]  40%" on a single line
type Bar struct {
	w    io.Writer
	last string
}

// NewBar creates a Bar writing to w
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

// Set draws pct, values outside 0..100 are clamped
func (b *Bar) Set(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * barWidth / 100
	b.draw(fmt.Sprintf("Progress: [%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(" ", barWidth-filled), pct))
}

// Unknown draws the bar for an input without known duration
func (b *Bar) Unknown() {
	b.draw("Progress: ?")
}

func (b *Bar) draw(line string) {
	if line == b.last {
		return
	}
	pad := ""
	if n := len(b.last) - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(b.w, "\r%s%s", line, pad)
	b.last = line
}

// Finish ends the bar line
func (b *Bar) Finish() {
	if b.last != "" {
		fmt.Fprintln(b.w)
		b.last = ""
	}
}

// Run starts req on c and renders its events on w until it ends.
// Cancelling ctx stops the job. It returns the process exit status: 0 on
// success, 1 otherwise.
func Run(ctx context.Context, c job.Controller, req job.Request, w io.Writer) int {
	j, err := c.Start(req)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(w, "Converting %s -> %s\n", req.Input, req.Output)

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			j.Stop()
		case <-j.Done():
		}
		close(stopped)
	}()
	defer func() { <-stopped }()

	bar := NewBar(w)
	known := false
	code := 1

	// 时长未知时没有中间进度，定时显示 "?"
	ticker := time.NewTicker(unknownInterval)
	defer ticker.Stop()

	events := j.Events()
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return code
			}
			switch e.Kind {
			case job.EventProgress:
				known = true
				bar.Set(e.Percent)
			case job.EventError:
				bar.Finish()
				if errors.Is(e.Err, job.ErrStopped) {
					fmt.Fprintln(w, "Conversion stopped")
					continue
				}
				fmt.Fprintf(w, "Error: %v\n", e.Err)
				if e.Message != "" && e.Message != e.Err.Error() {
					fmt.Fprintln(w, e.Message)
				}
			case job.EventTerminal:
				if e.Outcome == job.Success {
					bar.Finish()
					fmt.Fprintf(w, "Conversion completed: %s\n", req.Output)
					code = 0
				}
			}
		case <-ticker.C:
			if known {
				continue
			}
			if st := j.Status(); st.State == job.StateRunning && !st.Progress.PercentKnown {
				bar.Unknown()
			}
		}
	}
}
