package provisioning

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bufferObserver() (*SlogObserver, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewSlogObserver(logger), &buf
}

func TestSlogObserver_Event(t *testing.T) {
	t.Parallel()
	obs, buf := bufferObserver()

	LogWorkspaceCreated(obs, "surftest-abcde", "w-1")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="workspace created"`)
	assert.Contains(t, out, "event=workspace.created")
	assert.Contains(t, out, "state=Creating")
	assert.Contains(t, out, "workspace=surftest-abcde")
	assert.Contains(t, out, "id=w-1")
}

func TestSlogObserver_Levels(t *testing.T) {
	t.Parallel()
	obs, buf := bufferObserver()

	LogWorkspaceLeft(obs, StateAwaitingAddress, "surftest-abcde", "w-1", errors.New("no address"))
	LogPollAttempt(obs, "w-1", 2, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	assert.Contains(t, lines[0], "level=ERROR")
	assert.Contains(t, lines[0], `error="no address"`)
	assert.Contains(t, lines[1], "level=DEBUG")
	assert.NotContains(t, lines[1], "error=")
}

func TestSlogObserver_WithFields(t *testing.T) {
	t.Parallel()
	parent, buf := bufferObserver()
	child := parent.WithFields(map[string]string{"cycle": "7"})

	child.Event(Event{Type: EventCycleStarted, Message: "starting", Fields: map[string]string{"token": "abc"}})
	parent.Event(Event{Type: EventCycleStarted, Message: "parent"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	assert.Contains(t, lines[0], "cycle=7")
	assert.Contains(t, lines[0], "token=abc")
	assert.NotContains(t, lines[1], "cycle=7")
}

func TestSlogObserver_WorkspaceLoggedOnce(t *testing.T) {
	t.Parallel()
	parent, buf := bufferObserver()
	child := parent.WithFields(map[string]string{"workspace": "surftest-abcde"})

	LogWorkspaceDeleted(child, "surftest-abcde", "w-1")

	assert.Equal(t, 1, strings.Count(buf.String(), "workspace=surftest-abcde"))
}

func TestStateString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateDetecting, "Detecting"},
		{StateCreating, "Creating"},
		{StateAwaitingAddress, "AwaitingAddress"},
		{StateConfiguring, "Configuring"},
		{StateDeleting, "Deleting"},
		{StateAborted, "Aborted"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestCycleReport_Empty(t *testing.T) {
	t.Parallel()
	var r *CycleReport
	assert.Equal(t, StateIdle, r.Final())
	assert.Nil(t, r.States())
}
