package config

import "orchd/internal/domain"

// builtinAgents are the agents available without any user configuration.
// User config sections with the same name override these wholesale.
//
// Templates receive PlanData; the model is optional and guarded inside
// each template so an unset model contributes nothing to the command line.
func builtinAgents() map[string]domain.Agent {
	return map[string]domain.Agent{
		"claude": {
			Command:         "claude",
			CommandTemplate: `{{.Command}} --dangerously-skip-permissions{{if .Model}} --model {{.Model}}{{end}} {{.Prompt}}`,
			Description:     "Claude Code CLI",
		},
		"codex": {
			Command:         "codex",
			CommandTemplate: `{{.Command}} --dangerously-bypass-approvals-and-sandbox{{if .Model}} -m {{.Model}}{{end}} {{.Prompt}}`,
			Description:     "OpenAI Codex CLI",
		},
		"gemini": {
			Command:         "gemini",
			CommandTemplate: `{{.Command}} --yolo{{if .Model}} -m {{.Model}}{{end}} -i {{.Prompt}}`,
			Description:     "Gemini CLI",
		},
		"terminal": {
			Command:         "bash",
			CommandTemplate: `{{.Command}}`,
			Description:     "Plain shell session without an agent",
		},
	}
}
