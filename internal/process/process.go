// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具
//
// Package process wraps exec.Cmd for controlling a single FFmpeg run.

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unicode/utf8"
)

// ErrAlreadyStarted is returned when Start is called on a process that already ran
var ErrAlreadyStarted = errors.New("process already started")

// maxLineSize bounds a single output line
const maxLineSize = 1024 * 1024

// Process represents a one-shot child process
type Process interface {
	Status() Status
	Start() error
	Stop(wait bool) error
	Kill(wait bool) error
	IsRunning() bool
	// Done is closed once the exit has been observed
	Done() <-chan struct{}
	// ExitStatus is valid after Done is closed
	ExitStatus() ExitStatus
}

// Config for a process
type Config struct {
	Binary        string
	Args          []string
	KillTimeout   time.Duration
	StaleTimeout  time.Duration
	Parser        Parser
	Sampler       Sampler
	OnStart       func()
	OnExit        func(ExitStatus)
	OnStateChange func(from, to string)
	Logger        Logger
}

// ExitStatus describes how the child ended
type ExitStatus struct {
	Code     int
	Signaled bool
	// Err is set when the child could not be started or supervised
	Err error
}

// Success reports a clean zero exit
func (e ExitStatus) Success() bool {
	return e.Err == nil && !e.Signaled && e.Code == 0
}

// Status of a process
type Status struct {
	State    string
	States   States
	Order    string
	PID      int
	Duration time.Duration
	Time     time.Time
	LastLine string
	CPU      float64
	Memory   uint64
}

// States cumulative counts
type States struct {
	Finished  uint64
	Starting  uint64
	Running   uint64
	Finishing uint64
	Failed    uint64
	Killed    uint64
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type stateType string

const (
	stateFinished  stateType = "finished"
	stateStarting  stateType = "starting"
	stateRunning   stateType = "running"
	stateFinishing stateType = "finishing"
	stateFailed    stateType = "failed"
	stateKilled    stateType = "killed"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateStarting || s == stateRunning || s == stateFinishing
}

// transitions lists the allowed successors of every state
var transitions = map[stateType][]stateType{
	stateFinished:  {stateStarting},
	stateStarting:  {stateRunning, stateFinishing, stateFailed},
	stateRunning:   {stateFinished, stateFinishing, stateFailed, stateKilled},
	stateFinishing: {stateFinished, stateFailed, stateKilled},
	stateFailed:    {},
	stateKilled:    {},
}

type process struct {
	binary string
	args   []string
	cmd    *exec.Cmd
	pid    atomic.Int64
	pipe   io.ReadCloser

	state struct {
		state  stateType
		time   time.Time
		states States
		lock   sync.Mutex
	}
	order struct {
		order   string
		started bool
		lock    sync.Mutex
	}
	started  atomic.Bool
	halt     atomic.Bool
	lastLine atomic.Value

	parser Parser
	stale  struct {
		last    time.Time
		timeout time.Duration
		cancel  context.CancelFunc
		lock    sync.Mutex
	}
	killTimeout   time.Duration
	killTimer     *time.Timer
	killTimerLock sync.Mutex
	logger        Logger
	sampler       Sampler

	exit     ExitStatus
	exitLock sync.Mutex
	done     chan struct{}

	callbacks struct {
		onStart       func()
		onExit        func(ExitStatus)
		onStateChange func(from, to string)
	}
}

// New creates a new process
func New(config Config) (Process, error) {
	if len(config.Binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}

	p := &process{
		binary:      config.Binary,
		args:        config.Args,
		parser:      config.Parser,
		logger:      config.Logger,
		sampler:     config.Sampler,
		killTimeout: config.KillTimeout,
		done:        make(chan struct{}),
	}

	if p.parser == nil {
		p.parser = &nullParser{}
	}
	if p.logger == nil {
		p.logger = &nopLogger{}
	}
	if p.sampler == nil {
		p.sampler = NewSysSampler()
	}
	if p.killTimeout <= 0 {
		p.killTimeout = 5 * time.Second
	}

	p.order.order = "stop"
	p.lastLine.Store("")
	p.initState(stateFinished)
	p.stale.last = time.Now()
	p.stale.timeout = config.StaleTimeout
	p.callbacks.onStart = config.OnStart
	p.callbacks.onExit = config.OnExit
	p.callbacks.onStateChange = config.OnStateChange

	return p, nil
}

func (p *process) initState(state stateType) {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	p.state.state = state
	p.state.time = time.Now()
}

func (p *process) setState(state stateType) error {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()

	prev := p.state.state
	allowed := false
	for _, next := range transitions[prev] {
		if next == state {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("can't change from %s to %s", prev, state)
	}

	p.state.state = state
	p.state.time = time.Now()
	switch state {
	case stateStarting:
		p.state.states.Starting++
	case stateRunning:
		p.state.states.Running++
	case stateFinishing:
		p.state.states.Finishing++
	case stateFinished:
		p.state.states.Finished++
	case stateFailed:
		p.state.states.Failed++
	case stateKilled:
		p.state.states.Killed++
	}

	if p.callbacks.onStateChange != nil {
		go p.callbacks.onStateChange(prev.String(), state.String())
	}
	return nil
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) isRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Status() Status {
	cpu, memory := p.sampler.Current()

	p.state.lock.Lock()
	stateTime := p.state.time
	stateString := p.state.state.String()
	states := p.state.states
	p.state.lock.Unlock()

	// order 锁可能被 Start/Stop 持有，这里只读原子字段
	order := "stop"
	if p.started.Load() && !p.halt.Load() {
		order = "start"
	}

	return Status{
		State:    stateString,
		States:   states,
		Order:    order,
		PID:      int(p.pid.Load()),
		Duration: time.Since(stateTime),
		Time:     stateTime,
		LastLine: p.lastLine.Load().(string),
		CPU:      cpu,
		Memory:   memory,
	}
}

func (p *process) IsRunning() bool {
	return p.isRunning()
}

func (p *process) Done() <-chan struct{} {
	return p.done
}

func (p *process) ExitStatus() ExitStatus {
	p.exitLock.Lock()
	defer p.exitLock.Unlock()
	return p.exit
}

func (p *process) Start() error {
	p.order.lock.Lock()
	defer p.order.lock.Unlock()

	if p.order.started {
		return ErrAlreadyStarted
	}
	p.order.started = true
	p.order.order = "start"
	p.started.Store(true)
	return p.start()
}

func (p *process) start() error {
	p.setState(stateStarting)

	// stdout 与 stderr 合并到同一个管道
	r, w, err := os.Pipe()
	if err != nil {
		p.failStart(err)
		return err
	}

	p.cmd = exec.Command(p.binary, p.args...)
	p.cmd.Stdout = w
	p.cmd.Stderr = w

	if err := p.cmd.Start(); err != nil {
		r.Close()
		w.Close()
		p.failStart(err)
		return err
	}
	w.Close()

	p.pipe = r
	pid := p.cmd.Process.Pid
	p.pid.Store(int64(pid))
	if err := p.sampler.Start(pid); err != nil {
		p.logger.Debug("sampler for pid %d: %v", pid, err)
	}

	p.setState(stateRunning)
	p.logger.Debug("started %s (pid %d)", p.binary, pid)

	if p.callbacks.onStart != nil {
		go p.callbacks.onStart()
	}

	if p.stale.timeout != 0 {
		ctx, cancel := context.WithCancel(context.Background())
		p.stale.lock.Lock()
		p.stale.cancel = cancel
		p.stale.lock.Unlock()
		go p.staler(ctx)
	}

	go p.reader()

	return nil
}

func (p *process) failStart(err error) {
	p.setState(stateFailed)
	p.parser.Parse(err.Error())
	p.finish(ExitStatus{Code: 1, Err: err})
}

func (p *process) Stop(wait bool) error {
	p.order.lock.Lock()
	if p.order.order == "stop" {
		p.order.lock.Unlock()
		return nil
	}
	p.order.order = "stop"
	p.halt.Store(true)
	err := p.stop(false)
	p.order.lock.Unlock()

	if err == nil && wait {
		<-p.done
	}
	return err
}

func (p *process) Kill(wait bool) error {
	p.order.lock.Lock()
	started := p.order.started
	p.order.order = "stop"
	p.halt.Store(true)
	err := p.stop(true)
	p.order.lock.Unlock()

	if err == nil && wait && started {
		<-p.done
	}
	return err
}

// stop must be called with the order lock held
func (p *process) stop(kill bool) error {
	if !p.isRunning() {
		return nil
	}
	if p.getState() == stateFinishing && !kill {
		return nil
	}

	p.setState(stateFinishing)

	var err error
	if kill || runtime.GOOS == "windows" {
		err = p.cmd.Process.Kill()
	} else {
		err = p.cmd.Process.Signal(os.Interrupt)
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			err = p.cmd.Process.Kill()
		} else {
			err = nil
			p.killTimerLock.Lock()
			p.killTimer = time.AfterFunc(p.killTimeout, func() {
				p.cmd.Process.Kill()
			})
			p.killTimerLock.Unlock()
		}
	}
	if errors.Is(err, os.ErrProcessDone) {
		err = nil
	}

	if err != nil {
		p.parser.Parse(err.Error())
		p.logger.Error("stop pid %d: %v", p.pid.Load(), err)
	}
	return err
}

func (p *process) staler(ctx context.Context) {
	p.stale.lock.Lock()
	p.stale.last = time.Now()
	p.stale.lock.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			p.stale.lock.Lock()
			last := p.stale.last
			timeout := p.stale.timeout
			p.stale.lock.Unlock()

			if t.Sub(last) > timeout {
				p.logger.Error("no progress for %s, stopping pid %d", timeout, p.pid.Load())
				p.Stop(false)
				return
			}
		}
	}
}

func (p *process) reader() {
	scanner := bufio.NewScanner(p.pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLine)

	p.parser.ResetStats()
	p.parser.ResetLog()

	for scanner.Scan() {
		// 协作式停止：每行检查一次
		if p.halt.Load() {
			break
		}
		line := scanner.Text()
		p.lastLine.Store(line)
		p.logger.Debug("%s", line)
		if p.parser.Parse(line) != 0 {
			p.stale.lock.Lock()
			p.stale.last = time.Now()
			p.stale.lock.Unlock()
		}
	}

	readErr := scanner.Err()
	p.pipe.Close()

	p.waiter(readErr)
}

func (p *process) waiter(readErr error) {
	status := ExitStatus{}

	if err := p.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ws, ok := exitErr.Sys().(syscall.WaitStatus)
			if ok && ws.Signaled() {
				status.Signaled = true
				status.Code = -int(ws.Signal())
				p.setState(stateKilled)
			} else {
				status.Code = exitErr.ExitCode()
				p.setState(stateFailed)
			}
		} else {
			status.Code = 1
			status.Err = err
			p.setState(stateFailed)
		}
	} else {
		p.setState(stateFinished)
	}

	if readErr != nil && status.Err == nil {
		status.Err = fmt.Errorf("read output: %w", readErr)
	}

	p.sampler.Stop()

	p.killTimerLock.Lock()
	if p.killTimer != nil {
		p.killTimer.Stop()
		p.killTimer = nil
	}
	p.killTimerLock.Unlock()

	p.stale.lock.Lock()
	if p.stale.cancel != nil {
		p.stale.cancel()
		p.stale.cancel = nil
	}
	p.stale.lock.Unlock()

	p.logger.Debug("pid %d exited with code %d", p.pid.Load(), status.Code)
	p.finish(status)
}

func (p *process) finish(status ExitStatus) {
	p.exitLock.Lock()
	p.exit = status
	p.exitLock.Unlock()

	if p.callbacks.onExit != nil {
		p.callbacks.onExit(status)
	}
	close(p.done)
}

// scanLine splits on \n and \r, FFmpeg rewrites its status line with \r
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nopLogger struct{}

func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
func (l *nopLogger) Debug(format string, args ...interface{}) {}
