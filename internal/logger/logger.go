// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger provides a simple logging interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Level is the minimum severity that gets written
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// TimeFormat 日志时间格式，毫秒用逗号分隔
const TimeFormat = "2006-01-02 15:04:05,000"

// ParseLevel parses "debug", "info" or "error"
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

type defaultLogger struct {
	out    *log.Logger
	level  Level
	prefix string
	now    func() time.Time
}

// New writes one line per event to w as "<timestamp> - <LEVEL> - <message>"
func New(w io.Writer, level Level) Logger {
	return &defaultLogger{
		out:   log.New(w, "", 0),
		level: level,
		now:   time.Now,
	}
}

// Open appends to the log file at path. Extra writers receive the same lines.
func Open(path string, level Level, extra ...io.Writer) (Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	var w io.Writer = f
	if len(extra) > 0 {
		w = io.MultiWriter(append([]io.Writer{f}, extra...)...)
	}
	return New(w, level), f, nil
}

// WithPrefix returns a logger that prepends prefix to every message
func WithPrefix(l Logger, prefix string) Logger {
	if d, ok := l.(*defaultLogger); ok {
		c := *d
		c.prefix = d.prefix + prefix
		return &c
	}
	return &prefixLogger{logger: l, prefix: prefix}
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

func (l *defaultLogger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

func (l *defaultLogger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

func (l *defaultLogger) write(level Level, name, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(l.prefix+format, args...)
	l.out.Printf("%s - %s - %s", l.now().Format(TimeFormat), name, msg)
}

type prefixLogger struct {
	logger Logger
	prefix string
}

func (p *prefixLogger) Info(format string, args ...interface{}) {
	p.logger.Info(p.prefix+format, args...)
}

func (p *prefixLogger) Error(format string, args ...interface{}) {
	p.logger.Error(p.prefix+format, args...)
}

func (p *prefixLogger) Debug(format string, args ...interface{}) {
	p.logger.Debug(p.prefix+format, args...)
}

type nopLogger struct{}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Info(format string, args ...interface{})  {}
func (nopLogger) Error(format string, args ...interface{}) {}
func (nopLogger) Debug(format string, args ...interface{}) {}
