package cli

import "strings"

// getStatus renders the prompt suffix, e.g. "(ada online)".
func (a *App) getStatus() string {
	var parts []string
	if a.userName != "" {
		parts = append(parts, a.userName)
	}
	if a.Mode != "" {
		parts = append(parts, string(a.Mode))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}
