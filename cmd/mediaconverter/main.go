// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZSC714725/mediaconverter/internal/api"
	"github.com/ZSC714725/mediaconverter/internal/config"
	"github.com/ZSC714725/mediaconverter/internal/console"
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg"
	"github.com/ZSC714725/mediaconverter/internal/format"
	"github.com/ZSC714725/mediaconverter/internal/job"
	"github.com/ZSC714725/mediaconverter/internal/logger"
	"github.com/ZSC714725/mediaconverter/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	serve := flag.Bool("serve", false, "Run the HTTP server")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	ffprobeBin := flag.String("ffprobe", "", "ffprobe binary path (overrides config)")
	logLevel := flag.String("log-level", "", "debug, info or error (overrides config)")

	input := flag.String("i", "", "Input media file")
	output := flag.String("o", "", "Output file (default: input with the target extension)")
	target := flag.String("f", "", "Target format: mp4 avi mov gif webm mkv mp3 wav flac ogg aac")
	crf := flag.Int("crf", format.DefaultCRF, "Video quality 0-51, lower is better (0: encoder default)")
	bitrate := flag.String("ab", format.DefaultAudioBitrate, "Audio bitrate, e.g. 128k")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *ffmpegBin != "" {
		cfg.FFmpeg.Path = *ffmpegBin
	}
	if *ffprobeBin != "" {
		cfg.FFmpeg.Probe = *ffprobeBin
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if !*serve && *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Log level: %v", err)
	}
	// 控制台模式下 stderr 用于进度条，日志只写文件
	var extra []io.Writer
	if *serve {
		extra = append(extra, os.Stderr)
	}
	lg, closer, err := logger.Open(cfg.Log.File, level, extra...)
	if err != nil {
		log.Fatalf("Open log: %v", err)
	}
	defer closer.Close()

	ff, err := newFFmpeg(cfg)
	if err != nil {
		lg.Error("FFmpeg init: %v", err)
		log.Fatalf("FFmpeg init: %v", err)
	}
	lg.Info("using %s (version %s)", ff.Binary(), ff.Skills().FFmpeg.Version)

	ctrl, err := job.NewController(job.Config{
		FFmpeg:      ff,
		Logger:      lg,
		Observer:    metrics.NewJobObserver(),
		StopTimeout: cfg.Job.StopTimeout,
		HistorySize: cfg.Job.HistorySize,
	})
	if err != nil {
		log.Fatalf("Controller: %v", err)
	}

	if *serve {
		if err := runServer(cfg, ctrl, ff, lg); err != nil {
			lg.Error("server: %v", err)
			closer.Close()
			log.Fatalf("Server: %v", err)
		}
		return
	}

	f, err := format.Parse(*target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
	out := *output
	if out == "" && f.Valid() {
		out = format.DefaultOutput(*input, f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := console.Run(ctx, ctrl, job.Request{
		Input:        *input,
		Output:       out,
		Format:       f,
		CRF:          *crf,
		AudioBitrate: *bitrate,
	}, os.Stderr)
	stop()
	closer.Close()
	os.Exit(code)
}

func newFFmpeg(cfg *config.Config) (ffmpeg.FFmpeg, error) {
	in, err := ffmpeg.NewValidator(cfg.FFmpeg.Input.Allow, cfg.FFmpeg.Input.Block)
	if err != nil {
		return nil, fmt.Errorf("input validator: %w", err)
	}
	out, err := ffmpeg.NewValidator(cfg.FFmpeg.Output.Allow, cfg.FFmpeg.Output.Block)
	if err != nil {
		return nil, fmt.Errorf("output validator: %w", err)
	}

	return ffmpeg.New(ffmpeg.Config{
		Binary:          cfg.FFmpeg.Path,
		ProbeBinary:     cfg.FFmpeg.Probe,
		MaxLogLines:     cfg.FFmpeg.MaxLogLines,
		KillTimeout:     cfg.FFmpeg.KillTimeout,
		StaleTimeout:    cfg.FFmpeg.StaleTimeout,
		ValidatorInput:  in,
		ValidatorOutput: out,
	})
}

func runServer(cfg *config.Config, ctrl job.Controller, ff ffmpeg.FFmpeg, lg logger.Logger) error {
	handler := api.NewHandler(ctrl, ff)

	r := gin.New()
	r.Use(gin.Recovery(), cors.Default(), metrics.Middleware())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.Register(r.Group("/api/v1"))

	srv := &http.Server{
		Addr:    cfg.Server.Bind,
		Handler: r,
	}

	go func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		lg.Info("shutting down")
		ctrl.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("shutdown: %v", err)
		}
	}()

	lg.Info("MediaConverter listening on %s", cfg.Server.Bind)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
