// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Job    JobConfig    `yaml:"job"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	Path         string          `yaml:"path"`
	Probe        string          `yaml:"probe"`
	MaxLogLines  int             `yaml:"max_log_lines"`
	KillTimeout  time.Duration   `yaml:"kill_timeout"`
	StaleTimeout time.Duration   `yaml:"stale_timeout"`
	Input        ValidatorConfig `yaml:"input"`
	Output       ValidatorConfig `yaml:"output"`
}

// ValidatorConfig 路径白名单/黑名单（正则）
type ValidatorConfig struct {
	Allow []string `yaml:"allow"`
	Block []string `yaml:"block"`
}

// JobConfig 转换任务配置
type JobConfig struct {
	StopTimeout time.Duration `yaml:"stop_timeout"`
	HistorySize int           `yaml:"history_size"`
}

// LogConfig 日志配置
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8080"},
		FFmpeg: FFmpegConfig{
			Path:        "ffmpeg",
			Probe:       "ffprobe",
			MaxLogLines: 100,
			KillTimeout: 5 * time.Second,
		},
		Job: JobConfig{
			StopTimeout: 2 * time.Second,
			HistorySize: 50,
		},
		Log: LogConfig{
			File:  "conversion.log",
			Level: "info",
		},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.fill()
	return cfg, nil
}

// 填充空值
func (c *Config) fill() {
	def := Default()

	if c.Server.Bind == "" {
		c.Server.Bind = def.Server.Bind
	}
	if c.FFmpeg.Path == "" {
		c.FFmpeg.Path = def.FFmpeg.Path
	}
	if c.FFmpeg.Probe == "" {
		c.FFmpeg.Probe = def.FFmpeg.Probe
	}
	if c.FFmpeg.MaxLogLines <= 0 {
		c.FFmpeg.MaxLogLines = def.FFmpeg.MaxLogLines
	}
	if c.FFmpeg.KillTimeout <= 0 {
		c.FFmpeg.KillTimeout = def.FFmpeg.KillTimeout
	}
	if c.Job.StopTimeout <= 0 {
		c.Job.StopTimeout = def.Job.StopTimeout
	}
	if c.Job.HistorySize <= 0 {
		c.Job.HistorySize = def.Job.HistorySize
	}
	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}
