// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package ffmpeg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Validator decides whether a path may be used as FFmpeg input or output
type Validator interface {
	IsValid(path string) bool
}

type validator struct {
	allow []*regexp.Regexp
	block []*regexp.Regexp
}

// NewValidator creates a new Validator from allow and block expressions.
// Empty expressions are ignored. Paths are matched in absolute, cleaned form.
func NewValidator(allow, block []string) (Validator, error) {
	var err error
	v := &validator{}

	if v.allow, err = compile("allow", allow); err != nil {
		return nil, err
	}
	if v.block, err = compile("block", block); err != nil {
		return nil, err
	}
	return v, nil
}

func compile(kind string, exps []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, exp := range exps {
		exp = strings.TrimSpace(exp)
		if exp == "" {
			continue
		}
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, fmt.Errorf("invalid %s expression '%s': %w", kind, exp, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (v *validator) IsValid(path string) bool {
	if path == "" {
		return false
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)

	for _, e := range v.block {
		if e.MatchString(path) {
			return false
		}
	}
	if len(v.allow) == 0 {
		return true
	}
	for _, e := range v.allow {
		if e.MatchString(path) {
			return true
		}
	}
	return false
}
