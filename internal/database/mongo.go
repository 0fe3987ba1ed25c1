// Package database manages the disposable MongoDB container the node
// test suite runs against.
package database

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	specs "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/pkg/logger"
)

const mongoPort = nat.Port("27017/tcp")

// dockerClient is the slice of the Docker API the container scope uses.
type dockerClient interface {
	ImagePull(ctx context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.ContainerCreateCreatedBody, error)
	ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error
	ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error
}

type MongoContainer struct {
	client       dockerClient
	image        string
	port         int
	readyTimeout time.Duration
	pollInterval time.Duration
}

func NewMongoContainer(cfg config.MongoConfig) (*MongoContainer, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &MongoContainer{
		client:       cli,
		image:        cfg.Image,
		port:         cfg.Port,
		readyTimeout: cfg.ReadyTimeout,
		pollInterval: cfg.PollInterval,
	}, nil
}

// Run starts a MongoDB container, waits for it to accept connections,
// executes body, and removes the container on every exit path. The
// body's error takes precedence over a cleanup failure.
func (m *MongoContainer) Run(ctx context.Context, body func() error) error {
	log := logger.WithComponent("database")

	id, err := m.start(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("container", id[:12]).Int("port", m.port).Msg("MongoDB container running")

	if err := m.waitReady(ctx); err != nil {
		if rmErr := m.remove(id); rmErr != nil {
			log.Warn().Err(rmErr).Str("container", id[:12]).Msg("Container cleanup failed")
		}
		return err
	}

	bodyErr := body()

	if err := m.remove(id); err != nil {
		log.Warn().Err(err).Str("container", id[:12]).Msg("Container cleanup failed")
		if bodyErr == nil {
			return err
		}
	}
	return bodyErr
}

func (m *MongoContainer) start(ctx context.Context) (string, error) {
	log := logger.WithComponent("database")

	reader, err := m.client.ImagePull(ctx, m.image, types.ImagePullOptions{})
	if err != nil {
		// The image may already be present locally, so keep going.
		log.Warn().Err(err).Str("image", m.image).Msg("Image pull failed")
	} else {
		if _, err := io.Copy(io.Discard, reader); err != nil {
			reader.Close()
			return "", fmt.Errorf("image pull interrupted: %w", err)
		}
		reader.Close()
	}

	resp, err := m.client.ContainerCreate(ctx,
		&container.Config{
			Image:        m.image,
			ExposedPorts: nat.PortSet{mongoPort: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				mongoPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: strconv.Itoa(m.port)}},
			},
		},
		nil,
		nil,
		"",
	)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if err := m.client.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		m.remove(resp.ID)
		return "", fmt.Errorf("failed to start container: %w", err)
	}
	return resp.ID, nil
}

func (m *MongoContainer) waitReady(ctx context.Context) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(m.port))
	if err := WaitTCP(ctx, addr, m.readyTimeout, m.pollInterval); err != nil {
		return fmt.Errorf("mongo did not become ready within %s: %w", m.readyTimeout, err)
	}
	return nil
}

// remove force-removes the container. Uses a fresh context so cleanup
// still happens when the run context is already cancelled.
func (m *MongoContainer) remove(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return m.client.ContainerRemove(ctx, id, types.ContainerRemoveOptions{Force: true})
}

// WaitTCP polls addr until a TCP connection succeeds or timeout elapses.
func WaitTCP(ctx context.Context, addr string, timeout, interval time.Duration) error {
	dial := func() error {
		conn, err := net.DialTimeout("tcp", addr, interval)
		if err != nil {
			return err
		}
		return conn.Close()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = interval
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = timeout

	return backoff.Retry(dial, backoff.WithContext(policy, ctx))
}
