package taskfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orchd/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	created := time.Date(2026, 1, 15, 9, 32, 51, 0, time.UTC)
	task := &domain.Task{
		Title:         "Fix login flow",
		Description:   "Investigate the redirect loop on /login.\n\nSee the bug report for details.",
		Agent:         "claude",
		Model:         "sonnet",
		Workdir:       "/srv/app",
		BlockedReason: "waiting on review",
		SessionID:     "8d2f2c7a-3f1e-4bfa-9a71-6c11a7e3d9b0",
		Extra:         []string{"Reviewer: alice", "Estimate: 2d"},
		Priority:      domain.PriorityP1,
		Created:       created,
		Updated:       created.Add(time.Hour),
	}

	decoded, errs := Decode(Encode(task))
	require.Empty(t, errs)

	assert.Equal(t, task.Title, decoded.Title)
	assert.Equal(t, task.Description, decoded.Description)
	assert.Equal(t, task.Agent, decoded.Agent)
	assert.Equal(t, task.Model, decoded.Model)
	assert.Equal(t, task.Workdir, decoded.Workdir)
	assert.Equal(t, task.BlockedReason, decoded.BlockedReason)
	assert.Equal(t, task.SessionID, decoded.SessionID)
	assert.Equal(t, task.Extra, decoded.Extra)
	assert.Equal(t, task.Priority, decoded.Priority)
	assert.True(t, task.Created.Equal(decoded.Created))
	assert.True(t, task.Updated.Equal(decoded.Updated))
}

func TestDecodeFieldIsolation(t *testing.T) {
	// A corrupt Created must not disturb any other field.
	record := "Title: Fix login flow\n" +
		"Agent: claude\n" +
		"Priority: P0\n" +
		"Created: not-a-timestamp\n" +
		"Updated: 2026-01-15T10:32:51Z\n" +
		"---\n" +
		"Body text.\n"

	task, errs := Decode([]byte(record))

	require.Len(t, errs, 1)
	assert.Equal(t, "Created", errs[0].Field)
	assert.Equal(t, "not-a-timestamp", errs[0].Value)

	assert.True(t, task.Created.IsZero())
	assert.Equal(t, "Fix login flow", task.Title)
	assert.Equal(t, "claude", task.Agent)
	assert.Equal(t, domain.PriorityP0, task.Priority)
	assert.False(t, task.Updated.IsZero())
	assert.Equal(t, "Body text.\n", task.Description)
}

func TestDecodeFieldValueConfinedToLine(t *testing.T) {
	// The empty Model must decode to unset, not swallow the next line.
	record := "Title: T\n" +
		"Model:\n" +
		"Agent: codex\n" +
		"---\n"

	task, errs := Decode([]byte(record))
	require.Empty(t, errs)
	assert.Empty(t, task.Model)
	assert.Equal(t, "codex", task.Agent)
}

func TestDecodeUnknownLinesPreserved(t *testing.T) {
	record := "Title: T\n" +
		"Reviewer: alice\n" +
		"some stray note without a colon\n" +
		"---\n" +
		"Body.\n"

	task, errs := Decode([]byte(record))
	require.Empty(t, errs)
	assert.Equal(t, []string{"Reviewer: alice", "some stray note without a colon"}, task.Extra)

	// And they survive a second round trip verbatim.
	again, errs := Decode(Encode(task))
	require.Empty(t, errs)
	assert.Equal(t, task.Extra, again.Extra)
}

func TestDecodeDuplicateLabelKeepsFirst(t *testing.T) {
	record := "Title: first\n" +
		"Title: second\n" +
		"---\n"

	task, errs := Decode([]byte(record))
	require.Empty(t, errs)
	assert.Equal(t, "first", task.Title)
	assert.Equal(t, []string{"Title: second"}, task.Extra)
}

func TestDecodeUnrecognizedPriorityFallsBack(t *testing.T) {
	record := "Title: T\nPriority: urgent!!\n---\n"

	task, errs := Decode([]byte(record))
	require.Len(t, errs, 1)
	assert.Equal(t, "Priority", errs[0].Field)
	assert.Equal(t, domain.DefaultPriority, task.Priority)
}

func TestDecodeAnnotatedPriority(t *testing.T) {
	record := "Title: T\nPriority: P0 (prerequisite)\n---\n"

	task, errs := Decode([]byte(record))
	require.Empty(t, errs)
	assert.Equal(t, domain.PriorityP0, task.Priority)
}

func TestSplitRecordShapes(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantTitle  string
		wantBody   string
	}{
		{
			name:      "delimiter with body",
			content:   "Title: T\n---\nbody\n",
			wantTitle: "T",
			wantBody:  "body\n",
		},
		{
			name:      "trailing delimiter no body",
			content:   "Title: T\n---",
			wantTitle: "T",
			wantBody:  "",
		},
		{
			name:      "no delimiter at all",
			content:   "Title: T\n",
			wantTitle: "T",
			wantBody:  "",
		},
		{
			name:     "delimiter first line",
			content:  "---\neverything is body\n",
			wantBody: "everything is body\n",
		},
		{
			name:      "delimiter inside body ignored",
			content:   "Title: T\n---\nline\n---\nmore\n",
			wantTitle: "T",
			wantBody:  "line\n---\nmore\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, errs := Decode([]byte(tt.content))
			require.Empty(t, errs)
			assert.Equal(t, tt.wantTitle, task.Title)
			assert.Equal(t, tt.wantBody, task.Description)
		})
	}
}
