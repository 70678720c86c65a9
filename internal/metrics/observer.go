// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package metrics

import (
	"time"

	"github.com/ZSC714725/mediaconverter/internal/format"
	"github.com/ZSC714725/mediaconverter/internal/job"
)

// jobObserver implements job.Observer with the collectors in metrics.go
type jobObserver struct{}

// NewJobObserver creates an observer that records job metrics
func NewJobObserver() job.Observer {
	return &jobObserver{}
}

func (o *jobObserver) Started(f format.Format) {
	JobsStartedTotal.WithLabelValues(f.String()).Inc()
	JobsInProgress.Inc()
	JobProgress.Set(0)
}

func (o *jobObserver) Progress(id string, percent int) {
	JobProgress.Set(float64(percent))
}

func (o *jobObserver) Finished(f format.Format, state job.State, elapsed time.Duration) {
	JobsFinishedTotal.WithLabelValues(f.String(), string(state)).Inc()
	JobDuration.WithLabelValues(f.String()).Observe(elapsed.Seconds())
	JobsInProgress.Dec()
}
