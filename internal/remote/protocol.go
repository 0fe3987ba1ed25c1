// Package remote executes commands on a remote host running the
// webcheck agent, streaming output back over a WebSocket.
package remote

import "strings"

// Request asks the agent to run one shell command inside a working
// directory. Env, when non-empty, is the complete environment for the
// command.
type Request struct {
	Cmd        string            `json:"cmd"`
	WorkingDir string            `json:"working_dir"`
	Env        map[string]string `json:"env,omitempty"`
}

// Response carries either one line of combined output or, once the
// command finishes, its exit code.
type Response struct {
	Line *string `json:"line,omitempty"`
	Exit *int    `json:"exit,omitempty"`
}

// SanitizeLine strips everything but printable ASCII so remote output
// renders safely on whatever terminal the CI job logs to.
func SanitizeLine(line string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r > 126 {
			return -1
		}
		return r
	}, line)
}
