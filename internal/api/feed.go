// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package api

import (
	"sync"

	"github.com/ZSC714725/mediaconverter/internal/job"
)

// feed drains the event channel of one job and keeps every event,
// so any number of SSE clients can replay it from the start.
type feed struct {
	mu      sync.Mutex
	events  []job.Event
	closed  bool
	changed chan struct{}
}

func newFeed(events <-chan job.Event) *feed {
	f := &feed{changed: make(chan struct{})}
	go f.pump(events)
	return f
}

func (f *feed) pump(events <-chan job.Event) {
	for e := range events {
		f.mu.Lock()
		f.events = append(f.events, e)
		close(f.changed)
		f.changed = make(chan struct{})
		f.mu.Unlock()
	}

	f.mu.Lock()
	f.closed = true
	close(f.changed)
	f.mu.Unlock()
}

// since returns the events after the first n, whether the job channel
// is closed, and a channel that is closed on the next change.
func (f *feed) since(n int) ([]job.Event, bool, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []job.Event
	if n < len(f.events) {
		out = append(out, f.events[n:]...)
	}
	return out, f.closed, f.changed
}

// feeds maps job IDs to their feed
type feeds struct {
	mu sync.Mutex
	m  map[string]*feed
}

// track starts draining j and forgets feeds of jobs not in keep
func (fs *feeds) track(j *job.Job, keep []*job.Job) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.m == nil {
		fs.m = make(map[string]*feed)
	}
	live := make(map[string]bool, len(keep))
	for _, k := range keep {
		live[k.ID] = true
	}
	for id := range fs.m {
		if !live[id] {
			delete(fs.m, id)
		}
	}
	fs.m[j.ID] = newFeed(j.Events())
}

func (fs *feeds) get(id string) *feed {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.m[id]
}
