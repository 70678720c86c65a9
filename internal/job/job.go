// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package job

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/ffmpeg"
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/parse"
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/probe"
	"github.com/ZSC714725/mediaconverter/internal/logger"
	"github.com/ZSC714725/mediaconverter/internal/process"
)

// State of a job
type State string

const (
	StateProbing   State = "probing"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateStopped   State = "stopped"
)

// Done reports whether s is final
func (s State) Done() bool {
	return s == StateSucceeded || s == StateFailed || s == StateStopped
}

// Status is a snapshot of a job
type Status struct {
	ID         string
	Request    Request
	Command    []string
	State      State
	Duration   float64
	Percent    int
	Progress   parse.Progress
	Process    *process.Status
	CreatedAt  time.Time
	FinishedAt time.Time
	ExitCode   int
	Error      string
}

// Job is a single conversion run
type Job struct {
	ID        string
	Request   Request
	CreatedAt time.Time

	ffmpeg      ffmpeg.FFmpeg
	prober      probe.Prober
	logger      logger.Logger
	observer    Observer
	stopTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	done   chan struct{}

	mu         sync.Mutex
	state      State
	stopped    bool
	proc       process.Process
	parser     parse.Parser
	duration   float64
	percent    int
	finishedAt time.Time
	exitCode   int
	errText    string
}

func newJob(id string, req Request, c *controller) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		ID:          id,
		Request:     req,
		CreatedAt:   time.Now(),
		ffmpeg:      c.ffmpeg,
		prober:      c.prober,
		logger:      logger.WithPrefix(c.logger, "["+id+"] "),
		observer:    c.observer,
		stopTimeout: c.stopTimeout,
		ctx:         ctx,
		cancel:      cancel,
		events:      make(chan Event, eventBuffer),
		done:        make(chan struct{}),
		state:       StateProbing,
	}
}

// Events delivers progress, error and terminal events in order.
// The channel is closed after the terminal event.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Done is closed when the job has finished
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Status returns a snapshot of the job
func (j *Job) Status() Status {
	j.mu.Lock()
	s := Status{
		ID:         j.ID,
		Request:    j.Request,
		Command:    j.Request.CreateCommand(),
		State:      j.state,
		Duration:   j.duration,
		Percent:    j.percent,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.finishedAt,
		ExitCode:   j.exitCode,
		Error:      j.errText,
	}
	proc, parser := j.proc, j.parser
	j.mu.Unlock()

	if parser != nil {
		s.Progress = parser.Progress()
	} else {
		s.Progress.PercentKnown = s.Duration > 0
	}
	if proc != nil {
		ps := proc.Status()
		s.Process = &ps
	}
	return s
}

// Log returns the buffered FFmpeg output
func (j *Job) Log() []process.Line {
	j.mu.Lock()
	parser := j.parser
	j.mu.Unlock()

	if parser == nil {
		return nil
	}
	return parser.Log()
}

// Stop asks the job to end and waits up to the stop timeout.
// It can be called any number of times from any goroutine.
func (j *Job) Stop() {
	select {
	case <-j.done:
		return
	default:
	}

	j.mu.Lock()
	first := !j.stopped
	j.stopped = true
	proc := j.proc
	j.mu.Unlock()

	if first {
		j.cancel()
		if proc != nil {
			if err := proc.Stop(false); err != nil {
				j.logger.Error("stop: %v", err)
			}
		}
	}

	select {
	case <-j.done:
	case <-time.After(j.stopTimeout):
		j.logger.Error("not finished %s after stop", j.stopTimeout)
	}
}

func (j *Job) isStopped() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stopped
}

func (j *Job) run() {
	defer close(j.done)
	defer j.cancel()

	started := time.Now()
	j.observer.Started(j.Request.Format)

	duration, err := j.prober.Duration(j.ctx, j.Request.Input)
	if j.isStopped() {
		j.finishStopped(1, started)
		return
	}
	if err != nil {
		j.logger.Error("%v", err)
		duration = 0
	} else {
		j.logger.Info("duration of %s: %.2fs", j.Request.Input, duration)
	}

	j.preflight()

	parser := j.ffmpeg.NewParser(ffmpeg.ParserConfig{
		Duration:  duration,
		OnPercent: j.onPercent,
	})
	proc, err := j.ffmpeg.New(ffmpeg.ProcessConfig{
		Command: j.Request.CreateCommand(),
		Parser:  parser,
		Logger:  j.logger,
		OnStateChange: func(from, to string) {
			j.logger.Debug("process %s -> %s", from, to)
		},
	})
	if err != nil {
		j.finishFailed(fmt.Errorf("%w: %v", ErrSupervision, err), err.Error(), 1, started)
		return
	}

	// 持锁启动，保证 Stop 能看到进程句柄
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		j.finishStopped(1, started)
		return
	}
	j.proc = proc
	j.parser = parser
	j.duration = duration
	j.state = StateRunning
	if err := proc.Start(); err != nil {
		j.logger.Debug("start: %v", err)
	}
	j.mu.Unlock()

	<-proc.Done()
	status := proc.ExitStatus()

	// 退出后、判断前到达的 Stop 也按 stopped 处理；判断之后到达的 Stop 只等待结束
	switch {
	case j.isStopped():
		j.finishStopped(status.Code, started)
	case status.Err != nil:
		j.finishFailed(fmt.Errorf("%w: %v", ErrSupervision, status.Err), status.Err.Error(), 1, started)
	case status.Success():
		j.finishSucceeded(started)
	default:
		diag := diagnostic(parser.Log())
		err := fmt.Errorf("%w: exit code %d", ErrTranscode, status.Code)
		j.finishFailed(err, diag, status.Code, started)
	}
}

func (j *Job) preflight() {
	sk := j.ffmpeg.Skills()
	if sk.FFmpeg.Version == "" {
		return
	}
	if missing := sk.Missing(j.Request.Format.Encoders()...); len(missing) != 0 {
		j.logger.Error("ffmpeg %s has no encoder %s for %s", sk.FFmpeg.Version, strings.Join(missing, ", "), j.Request.Format)
	}
}

// onPercent runs on the process reader goroutine
func (j *Job) onPercent(pct int) {
	j.mu.Lock()
	if pct <= j.percent {
		j.mu.Unlock()
		return
	}
	j.percent = pct
	j.mu.Unlock()

	j.observer.Progress(j.ID, pct)
	j.events <- progressEvent(pct)
}

func diagnostic(lines []process.Line) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Data)
	}
	return strings.Join(out, "\n")
}

func (j *Job) finishSucceeded(started time.Time) {
	j.mu.Lock()
	j.percent = 100
	j.mu.Unlock()

	j.logger.Info("converted %s to %s", j.Request.Input, j.Request.Output)
	j.observer.Progress(j.ID, 100)
	j.events <- progressEvent(100)
	j.finish(StateSucceeded, 0, "", started, terminalEvent(Success, 0))
}

func (j *Job) finishFailed(err error, diag string, code int, started time.Time) {
	j.logger.Error("conversion of %s failed: %v\n%s", j.Request.Input, err, diag)
	j.events <- errorEvent(diag, err)
	j.finish(StateFailed, code, err.Error(), started, terminalEvent(Failure, code))
}

func (j *Job) finishStopped(code int, started time.Time) {
	j.logger.Info("conversion of %s stopped", j.Request.Input)
	j.events <- errorEvent(ErrStopped.Error(), ErrStopped)
	j.finish(StateStopped, code, ErrStopped.Error(), started, terminalEvent(Failure, code))
}

func (j *Job) finish(state State, code int, errText string, started time.Time, terminal Event) {
	j.mu.Lock()
	j.state = state
	j.exitCode = code
	j.errText = errText
	j.finishedAt = time.Now()
	j.mu.Unlock()

	j.observer.Finished(j.Request.Format, state, time.Since(started))
	j.events <- terminal
	close(j.events)
}
