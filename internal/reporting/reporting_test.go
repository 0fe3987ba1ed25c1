package reporting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithMode(logger.ModeTest)
	os.Exit(m.Run())
}

type recordingRunner struct {
	cmds []commands.Command
	err  error
}

func (r *recordingRunner) Run(ctx context.Context, cmd commands.Command) error {
	r.cmds = append(r.cmds, cmd)
	return r.err
}

func newTestReporter(t *testing.T, endpoint string, runner *recordingRunner) *Reporter {
	t.Helper()
	reporter, err := NewReporter(
		config.ReportingConfig{Enabled: true, Endpoint: endpoint, Project: "web-sdk"},
		commands.NewYarn(runner),
	)
	require.NoError(t, err)
	reporter.gitRef = func(ctx context.Context) (string, string, error) {
		return "feat/streams", "abc123", nil
	}
	reporter.statSize = func(path string) (int64, error) {
		return 204800, nil
	}
	return reporter
}

func TestNewReporterRequiresEnabled(t *testing.T) {
	cfg := config.ReportingConfig{Endpoint: "https://metrics.example.com/write"}
	_, err := NewReporter(cfg, commands.NewYarn(&recordingRunner{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestNewReporterRequiresEndpoint(t *testing.T) {
	_, err := NewReporter(config.ReportingConfig{Enabled: true}, commands.NewYarn(&recordingRunner{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

func TestSendSizeMetric(t *testing.T) {
	var got Point
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	runner := &recordingRunner{}
	reporter := newTestReporter(t, ts.URL, runner)

	err := reporter.SendSizeMetric(context.Background())
	require.NoError(t, err)

	// The bundle build runs before the point is sent.
	require.Len(t, runner.cmds, 1)
	assert.Equal(t, []string{"build:client-browser-umd"}, runner.cmds[0].Args)

	assert.Equal(t, "benchmark", got.Measurement)
	assert.Equal(t, "web-sdk", got.Tags["project"])
	assert.Equal(t, "feat/streams", got.Tags["branch"])
	assert.Equal(t, "client-browser-umd", got.Tags["object"])
	assert.Equal(t, "size", got.Tags["scenario"])
	assert.EqualValues(t, 204800, got.Fields["value"])
	assert.Equal(t, "abc123", got.Fields["commit_id"])
}

func TestSendSizeMetricRejectedPush(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	reporter := newTestReporter(t, ts.URL, &recordingRunner{})
	err := reporter.SendSizeMetric(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSendSizeMetricBuildFailure(t *testing.T) {
	reporter := newTestReporter(t, "http://127.0.0.1:1/write", &recordingRunner{err: assert.AnError})
	err := reporter.SendSizeMetric(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundle build failed")
}
