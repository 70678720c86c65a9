// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/ffmpeg"
	"github.com/ZSC714725/mediaconverter/internal/format"
	"github.com/ZSC714725/mediaconverter/internal/job"

	"github.com/gin-gonic/gin"
)

// Handler holds dependencies
type Handler struct {
	controller job.Controller
	ffmpeg     ffmpeg.FFmpeg
	feeds      feeds
	// interval between two status events on the SSE stream
	interval time.Duration
}

// NewHandler creates API handler
func NewHandler(controller job.Controller, ff ffmpeg.FFmpeg) *Handler {
	return &Handler{controller: controller, ffmpeg: ff, interval: 500 * time.Millisecond}
}

// Register adds all routes below g
func (h *Handler) Register(g gin.IRoutes) {
	g.GET("/formats", h.Formats)

	g.GET("/skills", h.Skills)
	g.POST("/skills/reload", h.ReloadSkills)

	g.GET("/jobs", h.ListJobs)
	g.POST("/jobs", h.StartJob)
	g.GET("/jobs/:id", h.GetJob)
	g.DELETE("/jobs/:id", h.StopJob)
	g.GET("/jobs/:id/events", h.JobEvents)
	g.GET("/jobs/:id/report", h.GetReport)
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		job.ErrInvalidInput,
		job.ErrMissingFormat,
		job.ErrInvalidOutput,
		job.ErrInvalidQuality,
		format.ErrUnknownFormat,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Formats GET /api/v1/formats
func (h *Handler) Formats(c *gin.Context) {
	resp := FormatsResponse{
		CRF:     format.CRFPresets(),
		Bitrate: format.BitratePresets(),
	}
	for _, f := range format.Video() {
		resp.Video = append(resp.Video, formatToAPI(f))
	}
	for _, f := range format.Audio() {
		resp.Audio = append(resp.Audio, formatToAPI(f))
	}
	c.JSON(http.StatusOK, resp)
}

// Skills GET /api/v1/skills
func (h *Handler) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Skills()))
}

// ReloadSkills POST /api/v1/skills/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if err := h.ffmpeg.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Skills()))
}

// StartJob POST /api/v1/jobs
func (h *Handler) StartJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	f, err := format.Parse(req.Format)
	if err != nil {
		errResp(c, http.StatusBadRequest, "Invalid format", err.Error())
		return
	}

	output := req.Output
	if output == "" && req.Input != "" && f.Valid() {
		output = format.DefaultOutput(req.Input, f)
	}

	// 与预设列表的默认项一致
	crf, bitrate := req.CRF, req.AudioBitrate
	if crf == 0 {
		crf = format.DefaultCRF
	}
	if bitrate == "" {
		bitrate = format.DefaultAudioBitrate
	}

	j, err := h.controller.Start(job.Request{
		Input:        req.Input,
		Output:       output,
		Format:       f,
		CRF:          crf,
		AudioBitrate: bitrate,
	})
	if err != nil {
		if isValidationError(err) {
			errResp(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
		errResp(c, http.StatusInternalServerError, "Start failed", err.Error())
		return
	}
	h.feeds.track(j, h.controller.List())

	c.JSON(http.StatusOK, jobToAPI(j.Status()))
}

// ListJobs GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	jobs := h.controller.List()
	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobToAPI(j.Status()))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) lookup(c *gin.Context) (*job.Job, bool) {
	j, err := h.controller.Get(c.Param("id"))
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown job ID", err.Error())
		return nil, false
	}
	return j, true
}

// GetJob GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, jobToAPI(j.Status()))
}

// StopJob DELETE /api/v1/jobs/:id
func (h *Handler) StopJob(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}
	j.Stop()
	c.JSON(http.StatusOK, jobToAPI(j.Status()))
}

// GetReport GET /api/v1/jobs/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}

	lines := j.Log()
	report := JobReport{ID: j.ID, Log: make([][2]string, len(lines))}
	for i, line := range lines {
		report.Log[i] = [2]string{
			line.Timestamp.Format("2006-01-02 15:04:05.000"),
			line.Data,
		}
	}

	c.JSON(http.StatusOK, report)
}

// JobEvents GET /api/v1/jobs/:id/events
//
// Forwards the job events as "progress", "error" and "terminal" events,
// then sends one "done" event with the final job.
func (h *Handler) JobEvents(c *gin.Context) {
	j, ok := h.lookup(c)
	if !ok {
		return
	}

	// SSEvent sets Content-Type
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	f := h.feeds.get(j.ID)
	if f == nil {
		h.pollStatus(c, j)
		return
	}

	n := 0
	for {
		events, closed, changed := f.since(n)
		for _, e := range events {
			c.SSEvent(e.Kind.String(), eventToAPI(e))
		}
		n += len(events)
		if closed {
			c.SSEvent("done", jobToAPI(j.Status()))
			c.Writer.Flush()
			return
		}
		if len(events) != 0 {
			c.Writer.Flush()
		}

		select {
		case <-c.Request.Context().Done():
			return
		case <-changed:
		}
	}
}

// pollStatus streams "status" snapshots for jobs started outside the API
func (h *Handler) pollStatus(c *gin.Context, j *job.Job) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		st := j.Status()
		if st.State.Done() {
			c.SSEvent("done", jobToAPI(st))
			c.Writer.Flush()
			return
		}
		c.SSEvent("status", jobToAPI(st))
		c.Writer.Flush()

		select {
		case <-c.Request.Context().Done():
			return
		case <-j.Done():
		case <-ticker.C:
		}
	}
}

func eventToAPI(e job.Event) Event {
	out := Event{Kind: e.Kind.String()}
	switch e.Kind {
	case job.EventProgress:
		out.Percent = e.Percent
	case job.EventError:
		out.Message = e.Message
		if e.Err != nil {
			out.Error = e.Err.Error()
		}
	case job.EventTerminal:
		out.Outcome = e.Outcome.String()
		out.ExitCode = e.ExitCode
	}
	return out
}

func formatToAPI(f format.Format) FormatInfo {
	p, _ := f.Profile()
	return FormatInfo{
		ID:          f.String(),
		Kind:        p.Kind.String(),
		Extension:   f.Extension(),
		VideoCodec:  p.VideoCodec,
		VideoFilter: p.VideoFilter,
		CRF:         p.CRF,
		AudioCodec:  p.AudioCodec,
		AudioArgs:   p.AudioArgs,
	}
}

func jobToAPI(st job.Status) Job {
	out := Job{
		ID:           st.ID,
		Input:        st.Request.Input,
		Output:       st.Request.Output,
		Format:       st.Request.Format.String(),
		CRF:          st.Request.CRF,
		AudioBitrate: st.Request.AudioBitrate,
		State:        string(st.State),
		CreatedAt:    st.CreatedAt.Unix(),
		ExitCode:     st.ExitCode,
		Error:        st.Error,
		Command:      st.Command,
		Progress: Progress{
			Percent:      st.Percent,
			PercentKnown: st.Progress.PercentKnown,
			Duration:     st.Duration,
			Frame:        st.Progress.Frame,
			Size:         st.Progress.Size,
			Time:         st.Progress.Time,
			Speed:        st.Progress.Speed,
			Quantizer:    st.Progress.Quantizer,
		},
	}
	if !st.FinishedAt.IsZero() {
		out.FinishedAt = st.FinishedAt.Unix()
	}
	if p := st.Process; p != nil {
		out.Process = &ProcessState{
			Order:   p.Order,
			State:   p.State,
			PID:     p.PID,
			Runtime: int64(p.Duration.Seconds()),
			LastLog: p.LastLine,
			Memory:  p.Memory,
			CPU:     p.CPU,
		}
	}
	return out
}
