// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package job

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input file")
	ErrMissingFormat  = errors.New("no output format selected")
	ErrInvalidOutput  = errors.New("invalid output file")
	ErrInvalidQuality = errors.New("invalid quality setting")
	ErrNotFound       = errors.New("job not found")

	// 以下错误只通过事件通道传递
	ErrTranscode   = errors.New("transcoding failed")
	ErrSupervision = errors.New("process supervision failed")
	ErrStopped     = errors.New("conversion stopped")
)
