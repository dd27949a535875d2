package usecase

import (
	"fmt"

	"orchd/internal/domain"
)

// resolveSessionID turns a task id or session id into a session id.
// Task ids carry the "task-" prefix, so the two namespaces never collide.
func resolveSessionID(store domain.TaskStore, ref string) (string, error) {
	if len(ref) < 5 || ref[:5] != "task-" {
		return ref, nil
	}
	task, err := store.Get(ref)
	if err != nil {
		return "", fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return "", fmt.Errorf("task %s: %w", ref, domain.ErrTaskNotFound)
	}
	if !task.HasSession() {
		return "", fmt.Errorf("task %s has no session: %w", ref, domain.ErrSessionNotFound)
	}
	return task.SessionID, nil
}
