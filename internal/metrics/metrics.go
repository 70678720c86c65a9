// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具
//
// Package metrics declares the Prometheus collectors of the converter.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics
var (
	JobsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaconverter_jobs_started_total",
			Help: "Total number of conversion jobs started",
		},
		[]string{"format"},
	)

	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaconverter_jobs_finished_total",
			Help: "Total number of conversion jobs finished",
		},
		[]string{"format", "state"}, // succeeded, failed, stopped
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaconverter_job_duration_seconds",
			Help:    "Conversion job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"format"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaconverter_jobs_in_progress",
			Help: "Number of conversion jobs currently running",
		},
	)

	JobProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaconverter_job_progress_percent",
			Help: "Progress of the most recently updated job",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaconverter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaconverter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
