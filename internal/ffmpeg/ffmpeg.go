// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package ffmpeg

import (
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/parse"
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/probe"
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/skills"
	"github.com/ZSC714725/mediaconverter/internal/logger"
	"github.com/ZSC714725/mediaconverter/internal/process"
)

// FFmpeg manages the FFmpeg/ffprobe binaries and skills
type FFmpeg interface {
	New(config ProcessConfig) (process.Process, error)
	NewParser(config ParserConfig) parse.Parser
	Prober() probe.Prober
	ValidateInput(path string) bool
	ValidateOutput(path string) bool
	Skills() skills.Skills
	ReloadSkills() error
	Binary() string
}

// ProcessConfig for creating a process
type ProcessConfig struct {
	Command       []string
	Parser        process.Parser
	Logger        logger.Logger
	OnStart       func()
	OnExit        func(process.ExitStatus)
	OnStateChange func(from, to string)
}

// ParserConfig for creating a progress parser
type ParserConfig struct {
	Duration  float64
	OnPercent func(int)
}

// Config for FFmpeg
type Config struct {
	Binary          string
	ProbeBinary     string
	MaxLogLines     int
	KillTimeout     time.Duration
	StaleTimeout    time.Duration
	ValidatorInput  Validator
	ValidatorOutput Validator
}

type ffmpeg struct {
	binary       string
	prober       probe.Prober
	validatorIn  Validator
	validatorOut Validator
	skills       skills.Skills
	logLines     int
	killTimeout  time.Duration
	staleTimeout time.Duration
	skillsLock   sync.RWMutex
}

// New creates FFmpeg
func New(config Config) (FFmpeg, error) {
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg binary: %w", err)
	}

	// ffprobe 缺失不致命：时长探测失败只影响进度显示
	probeBinary := config.ProbeBinary
	if probeBinary == "" {
		probeBinary = "ffprobe"
	}
	if p, err := exec.LookPath(probeBinary); err == nil {
		probeBinary = p
	}

	f := &ffmpeg{
		binary:       binary,
		prober:       probe.New(probeBinary),
		logLines:     config.MaxLogLines,
		killTimeout:  config.KillTimeout,
		staleTimeout: config.StaleTimeout,
	}

	if f.logLines <= 0 {
		f.logLines = 100
	}

	if config.ValidatorInput != nil {
		f.validatorIn = config.ValidatorInput
	} else {
		f.validatorIn, _ = NewValidator(nil, nil)
	}
	if config.ValidatorOutput != nil {
		f.validatorOut = config.ValidatorOutput
	} else {
		f.validatorOut, _ = NewValidator(nil, nil)
	}

	s, err := skills.New(f.binary)
	if err != nil {
		return nil, fmt.Errorf("invalid ffmpeg: %w", err)
	}
	f.skills = s

	return f, nil
}

func (f *ffmpeg) New(config ProcessConfig) (process.Process, error) {
	var log process.Logger
	if config.Logger != nil {
		log = config.Logger
	}
	return process.New(process.Config{
		Binary:        f.binary,
		Args:          config.Command,
		KillTimeout:   f.killTimeout,
		StaleTimeout:  f.staleTimeout,
		Parser:        config.Parser,
		Logger:        log,
		OnStart:       config.OnStart,
		OnExit:        config.OnExit,
		OnStateChange: config.OnStateChange,
	})
}

func (f *ffmpeg) NewParser(config ParserConfig) parse.Parser {
	return parse.New(parse.Config{
		LogLines:  f.logLines,
		Duration:  config.Duration,
		OnPercent: config.OnPercent,
	})
}

func (f *ffmpeg) Prober() probe.Prober {
	return f.prober
}

func (f *ffmpeg) ValidateInput(path string) bool {
	return f.validatorIn.IsValid(path)
}

func (f *ffmpeg) ValidateOutput(path string) bool {
	return f.validatorOut.IsValid(path)
}

func (f *ffmpeg) Skills() skills.Skills {
	f.skillsLock.RLock()
	defer f.skillsLock.RUnlock()
	return f.skills
}

func (f *ffmpeg) ReloadSkills() error {
	s, err := skills.New(f.binary)
	if err != nil {
		return fmt.Errorf("reload skills: %w", err)
	}
	f.skillsLock.Lock()
	f.skills = s
	f.skillsLock.Unlock()
	return nil
}

func (f *ffmpeg) Binary() string {
	return f.binary
}
