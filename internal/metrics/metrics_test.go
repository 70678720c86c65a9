// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/format"
	"github.com/ZSC714725/mediaconverter/internal/job"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}

func TestJobObserver(t *testing.T) {
	o := NewJobObserver()

	started := value(t, JobsStartedTotal.WithLabelValues("mkv"))
	finished := value(t, JobsFinishedTotal.WithLabelValues("mkv", "stopped"))
	running := value(t, JobsInProgress)

	o.Started(format.MKV)
	assert.Equal(t, started+1, value(t, JobsStartedTotal.WithLabelValues("mkv")))
	assert.Equal(t, running+1, value(t, JobsInProgress))

	o.Progress("abc", 42)
	assert.Equal(t, 42.0, value(t, JobProgress))

	o.Finished(format.MKV, job.StateStopped, 3*time.Second)
	assert.Equal(t, finished+1, value(t, JobsFinishedTotal.WithLabelValues("mkv", "stopped")))
	assert.Equal(t, running, value(t, JobsInProgress))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	before := value(t, HTTPRequestsTotal.WithLabelValues("GET", "/ping", "200"))
	missing := value(t, HTTPRequestsTotal.WithLabelValues("GET", "unknown", "404"))

	for _, path := range []string{"/ping", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before+1, value(t, HTTPRequestsTotal.WithLabelValues("GET", "/ping", "200")))
	assert.Equal(t, missing+1, value(t, HTTPRequestsTotal.WithLabelValues("GET", "unknown", "404")))
}
