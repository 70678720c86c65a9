// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package job

// EventKind tags an Event
type EventKind int

const (
	EventProgress EventKind = iota
	EventError
	EventTerminal
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventError:
		return "error"
	case EventTerminal:
		return "terminal"
	}
	return "unknown"
}

// Outcome of a finished job
type Outcome int

const (
	Success Outcome = iota
	Failure
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Event is sent on the job event channel.
// Progress sets Percent, Error sets Message and Err, Terminal sets Outcome and ExitCode.
type Event struct {
	Kind     EventKind
	Percent  int
	Message  string
	Err      error
	Outcome  Outcome
	ExitCode int
}

// eventBuffer holds every event a job can emit: at most 100 increments,
// the final 100, one error and the terminal event.
const eventBuffer = 128

func progressEvent(pct int) Event {
	return Event{Kind: EventProgress, Percent: pct}
}

func errorEvent(msg string, err error) Event {
	return Event{Kind: EventError, Message: msg, Err: err}
}

func terminalEvent(o Outcome, code int) Event {
	return Event{Kind: EventTerminal, Outcome: o, ExitCode: code}
}
