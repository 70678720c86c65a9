// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package skills

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Codec represents a codec with encoders and decoders
type Codec struct {
	Id       string
	Name     string
	Encoders []string
	Decoders []string
}

// Format represents a supported muxer or demuxer
type Format struct {
	Id   string
	Name string
}

// Filter represents a supported filter
type Filter struct {
	Id   string
	Name string
}

// Library represents a linked av library
type Library struct {
	Name     string
	Compiled string
	Linked   string
}

type ffmpegInfo struct {
	Version       string
	Compiler      string
	Configuration string
	Libraries     []Library
}

// Skills are the detected capabilities of FFmpeg
type Skills struct {
	FFmpeg  ffmpegInfo
	Filters []Filter
	Codecs  struct {
		Audio []Codec
		Video []Codec
	}
	Formats struct {
		Demuxers []Format
		Muxers   []Format
	}
}

// New returns all skills that FFmpeg provides
func New(binary string) (Skills, error) {
	c := Skills{}

	ff, err := getVersion(binary)
	if ff.Version == "" || err != nil {
		if err != nil {
			return Skills{}, fmt.Errorf("can't parse ffmpeg version: %w", err)
		}
		return Skills{}, fmt.Errorf("can't parse ffmpeg version")
	}
	c.FFmpeg = ff

	c.Filters = parseFilters(run(binary, "-filters"))
	c.Codecs = parseCodecs(run(binary, "-codecs"))
	c.Formats = parseFormats(run(binary, "-formats"))

	return c, nil
}

// HasEncoder reports whether any codec lists name as encoder
func (s Skills) HasEncoder(name string) bool {
	for _, group := range [][]Codec{s.Codecs.Video, s.Codecs.Audio} {
		for _, c := range group {
			for _, e := range c.Encoders {
				if e == name {
					return true
				}
			}
		}
	}
	return false
}

// HasFilter reports whether the filter is compiled in
func (s Skills) HasFilter(name string) bool {
	for _, f := range s.Filters {
		if f.Id == name {
			return true
		}
	}
	return false
}

// HasMuxer reports whether FFmpeg can write the container
func (s Skills) HasMuxer(name string) bool {
	for _, f := range s.Formats.Muxers {
		if f.Id == name {
			return true
		}
	}
	return false
}

// Missing returns the encoders from names that FFmpeg does not provide
func (s Skills) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !s.HasEncoder(n) {
			out = append(out, n)
		}
	}
	return out
}

func run(binary string, arg string) []byte {
	cmd := exec.Command(binary, "-hide_banner", arg)
	cmd.Env = []string{}
	stdout, _ := cmd.Output()
	return stdout
}

func getVersion(binary string) (ffmpegInfo, error) {
	cmd := exec.Command(binary, "-version")
	cmd.Env = []string{}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ffmpegInfo{}, err
	}
	return parseVersion(out), nil
}

var (
	reVersion       = regexp.MustCompile(`^ffmpeg version (?:n)?([0-9]+\.[0-9]+(\.[0-9]+)?)`)
	reCompiler      = regexp.MustCompile(`(?m)^\s*built with (.*)$`)
	reConfiguration = regexp.MustCompile(`(?m)^\s*configuration: (.*)$`)
	reLibrary       = regexp.MustCompile(`(?m)^\s*(lib(?:[a-z]+))\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+) /\s+([0-9]+\.\s*[0-9]+\.\s*[0-9]+)`)

	reFilter = regexp.MustCompile(`^\s[TSC.]{3} ([0-9A-Za-z_]+)\s+(?:.*?)\s+(.*)?$`)
	reCodec  = regexp.MustCompile(`^\s([D.])([E.])([VAS]).{3} ([0-9A-Za-z_]+)\s+(.*?)(?:\(decoders:([^\)]+)\))?\s?(?:\(encoders:([^\)]+)\))?$`)
	reFormat = regexp.MustCompile(`^\s([D ])([E ])[d ]?\s([0-9A-Za-z_,]+)\s+(.*?)$`)
)

func parseVersion(data []byte) ffmpegInfo {
	f := ffmpegInfo{}

	if m := reVersion.FindSubmatch(data); m != nil {
		f.Version = string(m[1])
		if len(m[2]) == 0 {
			f.Version += ".0"
		}
	}
	if m := reCompiler.FindSubmatch(data); m != nil {
		f.Compiler = string(m[1])
	}
	if m := reConfiguration.FindSubmatch(data); m != nil {
		f.Configuration = string(m[1])
	}
	for _, m := range reLibrary.FindAllSubmatch(data, -1) {
		f.Libraries = append(f.Libraries, Library{
			Name:     string(m[1]),
			Compiled: string(m[2]),
			Linked:   string(m[3]),
		})
	}
	return f
}

func parseFilters(data []byte) []Filter {
	var filters []Filter
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if m := reFilter.FindStringSubmatch(scanner.Text()); m != nil {
			filters = append(filters, Filter{Id: m[1], Name: m[2]})
		}
	}
	return filters
}

func parseCodecs(data []byte) struct {
	Audio []Codec
	Video []Codec
} {
	codecs := struct {
		Audio []Codec
		Video []Codec
	}{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reCodec.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		c := Codec{Id: m[4], Name: strings.TrimSpace(m[5])}
		if m[1] == "D" {
			if len(m[6]) == 0 {
				c.Decoders = []string{m[4]}
			} else {
				c.Decoders = strings.Fields(m[6])
			}
		}
		if m[2] == "E" {
			if len(m[7]) == 0 {
				c.Encoders = []string{m[4]}
			} else {
				c.Encoders = strings.Fields(m[7])
			}
		}
		// 字幕编解码器与格式转换无关
		switch m[3] {
		case "V":
			codecs.Video = append(codecs.Video, c)
		case "A":
			codecs.Audio = append(codecs.Audio, c)
		}
	}
	return codecs
}

func parseFormats(data []byte) struct {
	Demuxers []Format
	Muxers   []Format
} {
	f := struct {
		Demuxers []Format
		Muxers   []Format
	}{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := reFormat.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		// "mov,mp4,m4a,3gp" 这类多名称条目逐个登记
		for _, id := range strings.Split(m[3], ",") {
			format := Format{Id: id, Name: m[4]}
			if m[1] == "D" {
				f.Demuxers = append(f.Demuxers, format)
			}
			if m[2] == "E" {
				f.Muxers = append(f.Muxers, format)
			}
		}
	}
	return f
}
