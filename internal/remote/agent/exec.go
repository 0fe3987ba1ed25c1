package agent

import (
	"bufio"
	"io"
	"os/exec"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/driftlabs/webcheck/internal/remote"
	"github.com/driftlabs/webcheck/pkg/logger"
)

var (
	commandCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_commands_total",
			Help: "Total number of commands executed by the agent",
		},
		[]string{"status"},
	)

	commandDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_command_duration_seconds",
			Help:    "Duration of agent commands in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)

// runCommand executes one request, streaming combined output line by
// line, then sends the exit code.
func (s *Server) runCommand(conn *websocket.Conn, req remote.Request) {
	log := logger.WithComponent("agent")

	if !s.workDirAllowed(req.WorkingDir) {
		log.Error().Str("cwd", req.WorkingDir).Str("prefix", s.workDirPrefix).
			Msg("Working directory outside the allowed prefix")
		s.sendExit(conn, 126)
		commandCounter.WithLabelValues("rejected").Inc()
		return
	}

	log.Info().Str("cwd", req.WorkingDir).Str("cmd", req.Cmd).Msg("Running command")
	start := time.Now()

	cmd := shellCommand(req.Cmd)
	cmd.Dir = req.WorkingDir
	if len(req.Env) > 0 {
		cmd.Env = envSlice(req.Env)
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Str("cmd", req.Cmd).Msg("Command start failed")
		s.sendExit(conn, 127)
		commandCounter.WithLabelValues("start_failed").Inc()
		return
	}

	waitCh := make(chan int, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitCh <- exitCode(err)
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text() + "\n"
		if err := conn.WriteJSON(remote.Response{Line: &line}); err != nil {
			// The dispatcher is gone; kill the command and drop the rest
			// of its output so Wait can finish.
			log.Warn().Err(err).Msg("Output streaming failed")
			_ = cmd.Process.Kill()
			_ = pr.CloseWithError(err)
			break
		}
	}

	code := <-waitCh
	log.Info().Int("exit", code).Str("cmd", req.Cmd).Msg("Command finished")
	s.sendExit(conn, code)

	commandDuration.Observe(time.Since(start).Seconds())
	if code == 0 {
		commandCounter.WithLabelValues("ok").Inc()
	} else {
		commandCounter.WithLabelValues("failed").Inc()
	}
}

func (s *Server) sendExit(conn *websocket.Conn, code int) {
	if err := conn.WriteJSON(remote.Response{Exit: &code}); err != nil {
		log := logger.WithComponent("agent")
		log.Warn().Err(err).Msg("Failed to send exit code")
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

func envSlice(env map[string]string) []string {
	vars := make([]string, 0, len(env))
	for k, v := range env {
		vars = append(vars, k+"="+v)
	}
	return vars
}
