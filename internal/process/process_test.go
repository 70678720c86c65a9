// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConverter - FFmpeg 媒体格式转换工具

package process

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordParser struct {
	mu    sync.Mutex
	lines []string
}

func (p *recordParser) Parse(line string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, line)
	if strings.Contains(line, "frame=") {
		return 1
	}
	return 0
}

func (p *recordParser) ResetStats() {}
func (p *recordParser) ResetLog()   {}
func (p *recordParser) Log() []Line { return nil }

func (p *recordParser) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "fake.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func waitDone(t *testing.T, p Process) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestScanLine(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("a\rb\n\nc\r\n"))
	scanner.Split(scanLine)

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"a", "b", "c"}, tokens)
}

func TestNewRequiresBinary(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestProcessMergesOutputAndReportsExitCode(t *testing.T) {
	bin := writeScript(t, `echo "to stdout"
echo "to stderr" 1>&2
exit 3`)

	parser := &recordParser{}
	var exited ExitStatus
	p, err := New(Config{
		Binary:  bin,
		Parser:  parser,
		Sampler: NewNullSampler(),
		OnExit:  func(s ExitStatus) { exited = s },
	})
	require.NoError(t, err)
	require.NoError(t, p.Start())
	waitDone(t, p)

	status := p.ExitStatus()
	assert.Equal(t, 3, status.Code)
	assert.False(t, status.Signaled)
	assert.NoError(t, status.Err)
	assert.False(t, status.Success())
	assert.Equal(t, status, exited)

	assert.ElementsMatch(t, []string{"to stdout", "to stderr"}, parser.Lines())

	st := p.Status()
	assert.Equal(t, "failed", st.State)
	assert.Equal(t, uint64(1), st.States.Failed)
	assert.False(t, p.IsRunning())
}

func TestProcessSplitsCarriageReturns(t *testing.T) {
	bin := writeScript(t, `printf 'frame=1 time=00:00:01.00\r' 1>&2
printf 'frame=2 time=00:00:02.00\r' 1>&2
printf 'done\n' 1>&2`)

	parser := &recordParser{}
	p, err := New(Config{Binary: bin, Parser: parser, Sampler: NewNullSampler()})
	require.NoError(t, err)
	require.NoError(t, p.Start())
	waitDone(t, p)

	assert.True(t, p.ExitStatus().Success())
	assert.Equal(t, []string{"frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "done"}, parser.Lines())
	assert.Equal(t, "finished", p.Status().State)
	assert.Equal(t, "done", p.Status().LastLine)
}

func TestProcessStop(t *testing.T) {
	bin := writeScript(t, `echo ready
exec sleep 30`)

	parser := &recordParser{}
	p, err := New(Config{
		Binary:      bin,
		Parser:      parser,
		Sampler:     NewNullSampler(),
		KillTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, p.Start())

	require.Eventually(t, func() bool {
		return len(parser.Lines()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Stop(true))

	status := p.ExitStatus()
	assert.True(t, status.Signaled)
	assert.Less(t, status.Code, 0)
	assert.Equal(t, "killed", p.Status().State)
	assert.Equal(t, "stop", p.Status().Order)

	// second stop is a no-op
	assert.NoError(t, p.Stop(true))
}

func TestProcessKill(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)

	p, err := New(Config{Binary: bin, Sampler: NewNullSampler()})
	require.NoError(t, err)
	require.NoError(t, p.Start())
	require.NoError(t, p.Kill(true))

	assert.True(t, p.ExitStatus().Signaled)
	assert.False(t, p.ExitStatus().Success())
}

func TestProcessStaleTimeout(t *testing.T) {
	bin := writeScript(t, `echo "no progress here"
exec sleep 30`)

	p, err := New(Config{
		Binary:       bin,
		Parser:       &recordParser{},
		Sampler:      NewNullSampler(),
		StaleTimeout: time.Second,
		KillTimeout:  200 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, p.Start())
	waitDone(t, p)

	assert.True(t, p.ExitStatus().Signaled)
}

func TestStartMissingBinary(t *testing.T) {
	parser := &recordParser{}
	p, err := New(Config{Binary: filepath.Join(t.TempDir(), "missing"), Parser: parser, Sampler: NewNullSampler()})
	require.NoError(t, err)

	assert.Error(t, p.Start())
	waitDone(t, p)

	status := p.ExitStatus()
	assert.Error(t, status.Err)
	assert.Equal(t, 1, status.Code)
	assert.Len(t, parser.Lines(), 1)
	assert.Equal(t, "failed", p.Status().State)

	assert.ErrorIs(t, p.Start(), ErrAlreadyStarted)
}

func TestStopBeforeStart(t *testing.T) {
	p, err := New(Config{Binary: "ffmpeg", Sampler: NewNullSampler()})
	require.NoError(t, err)
	assert.NoError(t, p.Stop(true))
	assert.NoError(t, p.Kill(true))
}
