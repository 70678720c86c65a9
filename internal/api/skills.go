// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package api

import (
	"github.com/ZSC714725/mediaconverter/internal/ffmpeg/skills"
	"github.com/ZSC714725/mediaconverter/internal/format"
)

// SkillsResponse for API
type SkillsResponse struct {
	FFmpeg struct {
		Version       string          `json:"version"`
		Compiler      string          `json:"compiler"`
		Configuration string          `json:"configuration"`
		Libraries     []SkillsLibrary `json:"libraries"`
	} `json:"ffmpeg"`

	Filters []SkillsEntry `json:"filter"`

	Codecs struct {
		Audio []SkillsCodec `json:"audio"`
		Video []SkillsCodec `json:"video"`
	} `json:"codecs"`

	Formats struct {
		Demuxers []SkillsEntry `json:"demuxers"`
		Muxers   []SkillsEntry `json:"muxers"`
	} `json:"formats"`

	// Targets tells for each output format whether its encoders are present
	Targets []SkillsTarget `json:"targets"`
}

type SkillsLibrary struct {
	Name     string `json:"name"`
	Compiled string `json:"compiled"`
	Linked   string `json:"linked"`
}

type SkillsEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SkillsCodec struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Encoders []string `json:"encoders"`
	Decoders []string `json:"decoders"`
}

type SkillsTarget struct {
	Format    string   `json:"format"`
	Available bool     `json:"available"`
	Missing   []string `json:"missing,omitempty"`
}

func skillsToAPI(s skills.Skills) SkillsResponse {
	resp := SkillsResponse{}

	resp.FFmpeg.Version = s.FFmpeg.Version
	resp.FFmpeg.Compiler = s.FFmpeg.Compiler
	resp.FFmpeg.Configuration = s.FFmpeg.Configuration
	resp.FFmpeg.Libraries = make([]SkillsLibrary, len(s.FFmpeg.Libraries))
	for i, lib := range s.FFmpeg.Libraries {
		resp.FFmpeg.Libraries[i] = SkillsLibrary{lib.Name, lib.Compiled, lib.Linked}
	}

	resp.Filters = make([]SkillsEntry, len(s.Filters))
	for i, f := range s.Filters {
		resp.Filters[i] = SkillsEntry{f.Id, f.Name}
	}

	resp.Codecs.Audio = codecsToAPI(s.Codecs.Audio)
	resp.Codecs.Video = codecsToAPI(s.Codecs.Video)

	resp.Formats.Demuxers = make([]SkillsEntry, len(s.Formats.Demuxers))
	for i, f := range s.Formats.Demuxers {
		resp.Formats.Demuxers[i] = SkillsEntry{f.Id, f.Name}
	}
	resp.Formats.Muxers = make([]SkillsEntry, len(s.Formats.Muxers))
	for i, f := range s.Formats.Muxers {
		resp.Formats.Muxers[i] = SkillsEntry{f.Id, f.Name}
	}

	for _, f := range format.All() {
		missing := s.Missing(f.Encoders()...)
		resp.Targets = append(resp.Targets, SkillsTarget{
			Format:    f.String(),
			Available: len(missing) == 0,
			Missing:   missing,
		})
	}

	return resp
}

func codecsToAPI(codecs []skills.Codec) []SkillsCodec {
	out := make([]SkillsCodec, len(codecs))
	for i, c := range codecs {
		out[i] = SkillsCodec{ID: c.Id, Name: c.Name, Encoders: c.Encoders, Decoders: c.Decoders}
	}
	return out
}
