package database

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlabs/webcheck/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithMode(logger.ModeTest)
	os.Exit(m.Run())
}

const fakeContainerID = "0123456789abcdef0123"

type fakeDocker struct {
	calls     []string
	removed   []string
	pullErr   error
	startErr  error
	removeErr error
}

func (f *fakeDocker) ImagePull(ctx context.Context, refStr string, options types.ImagePullOptions) (io.ReadCloser, error) {
	f.calls = append(f.calls, "pull")
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return io.NopCloser(strings.NewReader("{}")), nil
}

func (f *fakeDocker) ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.ContainerCreateCreatedBody, error) {
	f.calls = append(f.calls, "create")
	return container.ContainerCreateCreatedBody{ID: fakeContainerID}, nil
}

func (f *fakeDocker) ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error {
	f.calls = append(f.calls, "start")
	return f.startErr
}

func (f *fakeDocker) ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error {
	f.calls = append(f.calls, "remove")
	f.removed = append(f.removed, containerID)
	return f.removeErr
}

// listenerPort grabs a port with a live listener so the readiness poll
// succeeds immediately.
func listenerPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().(*net.TCPAddr).Port
}

// closedPort grabs a port and closes it so nothing answers there.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func testContainer(docker *fakeDocker, port int) *MongoContainer {
	return &MongoContainer{
		client:       docker,
		image:        "mongo",
		port:         port,
		readyTimeout: 500 * time.Millisecond,
		pollInterval: 20 * time.Millisecond,
	}
}

func TestMongoRunLifecycle(t *testing.T) {
	docker := &fakeDocker{}
	m := testContainer(docker, listenerPort(t))

	err := m.Run(context.Background(), func() error {
		docker.calls = append(docker.calls, "body")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"pull", "create", "start", "body", "remove"}, docker.calls)
	assert.Equal(t, []string{fakeContainerID}, docker.removed)
}

func TestMongoRunBodyErrorWinsOverCleanupFailure(t *testing.T) {
	bodyErr := errors.New("coverage failed")
	docker := &fakeDocker{removeErr: errors.New("daemon gone")}
	m := testContainer(docker, listenerPort(t))

	err := m.Run(context.Background(), func() error { return bodyErr })
	assert.ErrorIs(t, err, bodyErr)
	assert.Equal(t, []string{fakeContainerID}, docker.removed)
}

func TestMongoRunCleanupFailureSurfacesWhenBodySucceeds(t *testing.T) {
	docker := &fakeDocker{removeErr: errors.New("daemon gone")}
	m := testContainer(docker, listenerPort(t))

	err := m.Run(context.Background(), func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon gone")
}

func TestMongoRunRemovesContainerWhenNeverReady(t *testing.T) {
	// Remove also failing must not mask the readiness error.
	docker := &fakeDocker{removeErr: errors.New("daemon gone")}
	m := testContainer(docker, closedPort(t))

	bodyRan := false
	err := m.Run(context.Background(), func() error {
		bodyRan = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not become ready")
	assert.False(t, bodyRan)
	assert.Equal(t, []string{fakeContainerID}, docker.removed)
}

func TestMongoRunStartFailureRemovesContainer(t *testing.T) {
	docker := &fakeDocker{startErr: errors.New("port already allocated")}
	m := testContainer(docker, listenerPort(t))

	err := m.Run(context.Background(), func() error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start container")
	assert.Equal(t, []string{fakeContainerID}, docker.removed)
}

func TestMongoRunToleratesPullFailure(t *testing.T) {
	// A pull failure is fine when the image is already local.
	docker := &fakeDocker{pullErr: errors.New("no network")}
	m := testContainer(docker, listenerPort(t))

	err := m.Run(context.Background(), func() error { return nil })
	assert.NoError(t, err)
}

func TestWaitTCPSucceeds(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = WaitTCP(context.Background(), ln.Addr().String(), 2*time.Second, 20*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitTCPSucceedsOnceListenerAppears(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	go func() {
		time.Sleep(150 * time.Millisecond)
		late, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		time.Sleep(2 * time.Second)
		late.Close()
	}()

	err = WaitTCP(context.Background(), addr, 5*time.Second, 20*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitTCPTimesOut(t *testing.T) {
	// Grab a port and close it so nothing is listening there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	start := time.Now()
	err = WaitTCP(context.Background(), addr, 300*time.Millisecond, 20*time.Millisecond)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitTCPHonorsContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = WaitTCP(ctx, addr, 30*time.Second, 20*time.Millisecond)
	assert.Error(t, err)
}
