package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/pkg/logger"
)

const tokenTTL = 2 * time.Minute

type Client struct {
	url              string
	secret           string
	handshakeTimeout time.Duration
	output           io.Writer
}

// NewClient builds a client for the agent at url; the shared secret and
// handshake timeout come from the remote config.
func NewClient(url string, cfg config.RemoteConfig) *Client {
	return &Client{
		url:              url,
		secret:           cfg.Secret,
		handshakeTimeout: cfg.HandshakeTimeout,
		output:           os.Stdout,
	}
}

// RunCommand executes cmd on the agent and streams its output until the
// exit message arrives. A non-zero exit code is an error.
func (c *Client) RunCommand(ctx context.Context, cmd, workingDir string, env map[string]string) error {
	log := logger.WithComponent("remote")
	log.Info().Str("url", c.url).Str("cwd", workingDir).Str("cmd", cmd).Msg("Dispatching to agent")

	header := http.Header{}
	if c.secret != "" {
		token, err := signToken(c.secret)
		if err != nil {
			return fmt.Errorf("failed to sign agent token: %w", err)
		}
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("agent connection failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("agent connection failed: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Request{Cmd: cmd, WorkingDir: workingDir, Env: env}); err != nil {
		return fmt.Errorf("failed to send command to agent: %w", err)
	}

	for {
		var msg Response
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("agent stream failed: %w", err)
		}
		if msg.Line != nil {
			fmt.Fprint(c.output, SanitizeLine(*msg.Line))
			continue
		}
		if msg.Exit != nil {
			if *msg.Exit != 0 {
				return fmt.Errorf("remote command exited with %d", *msg.Exit)
			}
			log.Debug().Str("cmd", cmd).Msg("Remote command succeeded")
			return nil
		}
	}
}

func signToken(secret string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}
