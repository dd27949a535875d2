package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskID(t *testing.T) {
	now := time.Date(2026, 1, 15, 9, 32, 51, 0, time.UTC)

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "simple title",
			title: "Fix login flow",
			want:  "task-20260115-093251-fix-login-flow",
		},
		{
			name:  "special characters stripped",
			title: "Fix: Login / Flow!!",
			want:  "task-20260115-093251-fix-login-flow",
		},
		{
			name:  "empty title",
			title: "   ",
			want:  "task-20260115-093251-task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTaskID(now, tt.title))
		})
	}
}

func TestNewTaskIDTruncation(t *testing.T) {
	now := time.Date(2026, 1, 15, 9, 32, 51, 0, time.UTC)
	id := NewTaskID(now, strings.Repeat("very long title ", 10))

	slugPart := strings.TrimPrefix(id, "task-20260115-093251-")
	assert.LessOrEqual(t, len(slugPart), 30)
	assert.False(t, strings.HasSuffix(id, "-"), "no dangling hyphen after truncation")
}

func TestTmuxSessionName(t *testing.T) {
	name := TmuxSessionName("8d2f2c7a-3f1e-4bfa-9a71-6c11a7e3d9b0")
	assert.Equal(t, "orch-8d2f2c7a-3f1e-4bfa-9a71-6c11a7e3d9b0", name)

	// Characters tmux rejects are replaced.
	name = TmuxSessionName("weird:id.with/chars")
	assert.Equal(t, "orch-weird-id-with-chars", name)
	assert.LessOrEqual(t, len(TmuxSessionName(strings.Repeat("x", 100))), 64)
}
