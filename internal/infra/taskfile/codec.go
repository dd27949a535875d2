// Package taskfile encodes and decodes task records.
//
// A record is a set of labeled header lines, a "---" delimiter line, and a
// free-form body:
//
//	Title: Fix login flow
//	Agent: claude
//	Model: sonnet
//	Priority: P1
//	Created: 2026-01-15T09:32:51Z
//	Updated: 2026-01-15T09:32:51Z
//	---
//	Investigate the redirect loop on /login and fix it.
//
// Parsing is field-scoped and line-anchored: a field's value is whatever
// follows its label on that line and nothing else. A missing or empty field
// decodes to its unset value; it never absorbs content from a neighboring
// line or from the body. Header lines that aren't recognized are preserved
// verbatim and re-emitted on encode, so hand-added metadata survives a
// round trip.
package taskfile

import (
	"fmt"
	"strings"
	"time"

	"orchd/internal/domain"
)

const delimiter = "---"

// Header field labels. The task's state is deliberately absent: partition
// membership is the single source of truth for state.
const (
	fieldTitle    = "Title"
	fieldAgent    = "Agent"
	fieldModel    = "Model"
	fieldPriority = "Priority"
	fieldCreated  = "Created"
	fieldUpdated  = "Updated"
	fieldSession  = "Session"
	fieldBlocked  = "Blocked-Reason"
	fieldWorkdir  = "Workdir"
)

// FieldError reports a single header field that could not be parsed.
// The field falls back to its unset value; a FieldError never invalidates
// the rest of the record.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (value %q)", e.Field, e.Reason, e.Value)
}

// Encode serializes a task to record text. ID and State are not written:
// the file name carries the id and the partition carries the state.
func Encode(t *domain.Task) []byte {
	var b strings.Builder

	writeField := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	writeField(fieldTitle, t.Title)
	writeField(fieldAgent, t.Agent)
	if t.Model != "" {
		writeField(fieldModel, t.Model)
	}
	writeField(fieldPriority, t.Priority.String())
	if !t.Created.IsZero() {
		writeField(fieldCreated, t.Created.UTC().Format(time.RFC3339))
	}
	if !t.Updated.IsZero() {
		writeField(fieldUpdated, t.Updated.UTC().Format(time.RFC3339))
	}
	if t.SessionID != "" {
		writeField(fieldSession, t.SessionID)
	}
	if t.BlockedReason != "" {
		writeField(fieldBlocked, t.BlockedReason)
	}
	if t.Workdir != "" {
		writeField(fieldWorkdir, t.Workdir)
	}
	for _, line := range t.Extra {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(delimiter)
	b.WriteByte('\n')
	b.WriteString(t.Description)

	return []byte(b.String())
}

// Decode parses record text into a task. Unparseable fields fall back to
// their unset values and are reported; decoding never fails as a whole.
// ID and State are left empty for the store to fill in.
func Decode(content []byte) (*domain.Task, []FieldError) {
	header, body := splitRecord(string(content))

	t := &domain.Task{
		Description: body,
		Priority:    domain.DefaultPriority,
	}
	var errs []FieldError
	seen := make(map[string]bool)

	for _, line := range splitLines(header) {
		label, value, ok := parseFieldLine(line)
		if !ok || seen[label] {
			// Not a recognized field, or a duplicate: keep it verbatim so
			// encode reproduces the original record.
			t.Extra = append(t.Extra, line)
			continue
		}
		seen[label] = true

		switch label {
		case fieldTitle:
			t.Title = value
		case fieldAgent:
			t.Agent = value
		case fieldModel:
			t.Model = value
		case fieldPriority:
			if value == "" {
				break
			}
			p, ok := domain.ParsePriority(value)
			t.Priority = p
			if !ok {
				errs = append(errs, FieldError{Field: fieldPriority, Value: value, Reason: "unrecognized priority"})
			}
		case fieldCreated:
			t.Created = parseTime(value, fieldCreated, &errs)
		case fieldUpdated:
			t.Updated = parseTime(value, fieldUpdated, &errs)
		case fieldSession:
			t.SessionID = value
		case fieldBlocked:
			t.BlockedReason = value
		case fieldWorkdir:
			t.Workdir = value
		}
	}

	return t, errs
}

// parseFieldLine matches "Label: value" against the known labels. The value
// is confined to the remainder of the same line.
func parseFieldLine(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	label = line[:idx]
	switch label {
	case fieldTitle, fieldAgent, fieldModel, fieldPriority, fieldCreated,
		fieldUpdated, fieldSession, fieldBlocked, fieldWorkdir:
		return label, strings.TrimSpace(line[idx+1:]), true
	default:
		return "", "", false
	}
}

func parseTime(value, field string, errs *[]FieldError) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		*errs = append(*errs, FieldError{Field: field, Value: value, Reason: "invalid timestamp"})
		return time.Time{}
	}
	return ts.UTC()
}

// splitRecord separates the header from the body at the first delimiter
// line. A record with no delimiter is all header and has an empty body.
func splitRecord(content string) (header, body string) {
	if content == delimiter {
		return "", ""
	}
	if strings.HasPrefix(content, delimiter+"\n") {
		return "", content[len(delimiter)+1:]
	}
	if idx := strings.Index(content, "\n"+delimiter+"\n"); idx >= 0 {
		return content[:idx], content[idx+len(delimiter)+2:]
	}
	if strings.HasSuffix(content, "\n"+delimiter) {
		return content[:len(content)-len(delimiter)-1], ""
	}
	return content, ""
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
