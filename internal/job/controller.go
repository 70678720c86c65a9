// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package job

import (
	"fmt"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/ffmpeg"
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/probe"
	"github.com/ZSC714725/mediaconverter/internal/logger"

	"github.com/lithammer/shortuuid/v4"
)

// Controller runs at most one conversion at a time
type Controller interface {
	// Start validates req, stops the active job and starts a new one
	Start(req Request) (*Job, error)
	// Stop stops the active job, if any
	Stop()
	// Current returns the job that is still running, or nil
	Current() *Job
	Get(id string) (*Job, error)
	// List returns the history, oldest first
	List() []*Job
}

// Config for a controller
type Config struct {
	FFmpeg ffmpeg.FFmpeg
	// Prober defaults to FFmpeg.Prober()
	Prober      probe.Prober
	Logger      logger.Logger
	Observer    Observer
	StopTimeout time.Duration
	HistorySize int
}

type controller struct {
	ffmpeg      ffmpeg.FFmpeg
	prober      probe.Prober
	logger      logger.Logger
	observer    Observer
	stopTimeout time.Duration
	historySize int

	startLock sync.Mutex

	mu      sync.RWMutex
	active  *Job
	history []*Job
}

// NewController creates a Controller
func NewController(config Config) (Controller, error) {
	if config.FFmpeg == nil {
		return nil, fmt.Errorf("no ffmpeg given")
	}

	c := &controller{
		ffmpeg:      config.FFmpeg,
		prober:      config.Prober,
		logger:      config.Logger,
		observer:    config.Observer,
		stopTimeout: config.StopTimeout,
		historySize: config.HistorySize,
	}

	if c.prober == nil {
		c.prober = c.ffmpeg.Prober()
	}
	if c.logger == nil {
		c.logger = logger.NewNop()
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.stopTimeout <= 0 {
		c.stopTimeout = 2 * time.Second
	}
	if c.historySize <= 0 {
		c.historySize = 50
	}

	return c, nil
}

func (c *controller) validate(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !c.ffmpeg.ValidateInput(req.Input) {
		return fmt.Errorf("%w: %s is not allowed", ErrInvalidInput, req.Input)
	}
	if !c.ffmpeg.ValidateOutput(req.Output) {
		return fmt.Errorf("%w: %s is not allowed", ErrInvalidOutput, req.Output)
	}
	return nil
}

func (c *controller) Start(req Request) (*Job, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	c.startLock.Lock()
	defer c.startLock.Unlock()

	c.mu.RLock()
	prev := c.active
	c.mu.RUnlock()
	if prev != nil {
		prev.Stop()
	}

	j := newJob(shortuuid.New(), req, c)

	c.mu.Lock()
	c.active = j
	c.history = append(c.history, j)
	if over := len(c.history) - c.historySize; over > 0 {
		c.history = append([]*Job(nil), c.history[over:]...)
	}
	c.mu.Unlock()

	c.logger.Info("job %s: %s -> %s (%s)", j.ID, req.Input, req.Output, req.Format)
	go j.run()

	return j, nil
}

func (c *controller) Stop() {
	if j := c.Current(); j != nil {
		j.Stop()
	}
}

func (c *controller) Current() *Job {
	c.mu.RLock()
	j := c.active
	c.mu.RUnlock()

	if j == nil {
		return nil
	}
	select {
	case <-j.Done():
		return nil
	default:
		return j
	}
}

func (c *controller) Get(id string) (*Job, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, j := range c.history {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (c *controller) List() []*Job {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Job(nil), c.history...)
}
