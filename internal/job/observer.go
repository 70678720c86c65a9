// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package job

import (
	"time"

	"github.com/ZSC714725/mediaconverter/internal/format"
)

// Observer is notified about job lifecycle, e.g. for metrics
type Observer interface {
	Started(f format.Format)
	Progress(id string, percent int)
	Finished(f format.Format, state State, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Started(format.Format)                        {}
func (nopObserver) Progress(string, int)                         {}
func (nopObserver) Finished(format.Format, State, time.Duration) {}
