package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"

	"secdash/pkg/config"
	"secdash/pkg/models"
)

const sampleTable = `Local API Decisions:
+---------------------+----------+--------+-------+
 crowdsecurity/ssh-bf | crowdsec | ban | 42
 crowdsecurity/http-probing | crowdsec | ban | 7`

// fakeExecutor answers from a fixed table of outputs
type fakeExecutor struct {
	mu      sync.Mutex
	outputs map[string]models.CommandResult
	closed  bool
	seen    config.ExecutorConfig
}

func (f *fakeExecutor) Execute(_ context.Context, command, _ string) models.CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if result, ok := f.outputs[command]; ok {
		return result
	}
	return models.CommandResult{Failed: true, Message: "not found"}
}

func (f *fakeExecutor) Close() error {
	f.closed = true
	return nil
}

type CmdTestSuite struct {
	suite.Suite
	exec   *fakeExecutor
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func (s *CmdTestSuite) SetupTest() {
	for _, key := range []string{
		config.EnvHost, config.EnvPort, config.EnvCORSOrigins, config.EnvStaticDir,
		config.EnvContainer, config.EnvExecMode, config.EnvCommandTimeout,
	} {
		s.T().Setenv(key, "")
	}

	s.exec = &fakeExecutor{outputs: map[string]models.CommandResult{
		"cscli metrics": {Output: sampleTable},
		"uptime":        {Output: " 10:00:00 up 1 day,  2:03,  1 user,  load average: 0.50, 0.40, 0.30"},
		"free -h":       {Output: "x total used free\nMem: 8Gi 2Gi 6Gi"},
		"df -h /":       {Output: "Filesystem Size Used Avail Use% Mounted\n/dev/sda1 50G 20G 30G 40% /"},
	}}
	s.stdout = &bytes.Buffer{}
	s.stderr = &bytes.Buffer{}
}

func (s *CmdTestSuite) root() *cobra.Command {
	root := newRootCommand(&app{
		version: "test",
		newExecutor: func(cfg config.ExecutorConfig) (commandExecutor, error) {
			s.exec.seen = cfg
			return s.exec, nil
		},
	})
	root.SetOut(s.stdout)
	root.SetErr(s.stderr)
	return root
}

func (s *CmdTestSuite) run(args ...string) error {
	root := s.root()
	args = append(args, "--env-file", filepath.Join(s.T().TempDir(), "none.env"))
	root.SetArgs(args)
	return root.Execute()
}

func (s *CmdTestSuite) TestMetricsSecurity() {
	s.Require().NoError(s.run("metrics", "security"))

	var decisions []models.SecurityDecision
	s.Require().NoError(json.Unmarshal(s.stdout.Bytes(), &decisions))
	s.Equal([]models.SecurityDecision{
		{Reason: "ssh-bf", Origin: "crowdsec", Action: "ban", Count: 42},
		{Reason: "http-probing", Origin: "crowdsec", Action: "ban", Count: 7},
	}, decisions)
	s.True(s.exec.closed)
}

func (s *CmdTestSuite) TestMetricsSystem() {
	s.Require().NoError(s.run("metrics", "system"))

	var snapshot models.SystemSnapshot
	s.Require().NoError(json.Unmarshal(s.stdout.Bytes(), &snapshot))
	s.Equal("1 day,  2:03", snapshot.Uptime)
	s.Equal("8Gi", snapshot.Memory.Total)
	s.Equal("40%", snapshot.Disk.UsePercentage)
}

func (s *CmdTestSuite) TestMetricsCombined() {
	s.Require().NoError(s.run("metrics"))

	var combined combinedMetrics
	s.Require().NoError(json.Unmarshal(s.stdout.Bytes(), &combined))
	s.Len(combined.Security, 2)
	s.Require().NotNil(combined.System)
	s.Equal("0.50, 0.40, 0.30", combined.System.LoadAverage)
}

func (s *CmdTestSuite) TestMetricsFailurePrintsEnvelope() {
	s.exec.outputs["df -h /"] = models.CommandResult{Failed: true, Message: "timeout"}

	err := s.run("metrics", "system")
	s.ErrorIs(err, ErrCollectionFailed)
	s.JSONEq(`{"error":true,"message":"Failed to retrieve system metrics"}`, s.stdout.String())
}

func (s *CmdTestSuite) TestMetricsRejectsUnknownTarget() {
	s.Error(s.run("metrics", "network"))
}

func (s *CmdTestSuite) TestMetricsHonorsConfigFile() {
	path := filepath.Join(s.T().TempDir(), "secdash.yaml")
	s.Require().NoError(writeFile(path, "executor:\n  mode: api\n  timeout: 4s\n"))

	s.Require().NoError(s.run("metrics", "security", "--config", path))
	s.Equal(config.ExecModeAPI, s.exec.seen.Mode)
}

func (s *CmdTestSuite) TestServeFlagsOverrideConfig() {
	cmd := newServeCommand(&app{})
	s.Require().NoError(cmd.ParseFlags([]string{"--port", "8088", "--exec-mode", "api", "--container", "cs"}))

	cfg := config.Default()
	parsed := serveFlags{port: 8088, execMode: "api", container: "cs"}
	s.Require().NoError(parsed.apply(cmd, cfg))

	s.Equal(8088, cfg.Server.Port)
	s.Equal(config.ExecModeAPI, cfg.Executor.Mode)
	s.Equal("cs", cfg.Security.Container)
	s.Equal("0.0.0.0", cfg.Server.Host, "unset flags leave config alone")
}

func (s *CmdTestSuite) TestServeFlagsRevalidate() {
	cmd := newServeCommand(&app{})
	s.Require().NoError(cmd.ParseFlags([]string{"--exec-mode", "ssh"}))

	err := serveFlags{execMode: "ssh"}.apply(cmd, config.Default())
	s.ErrorIs(err, config.ErrInvalidMode)
}

func (s *CmdTestSuite) TestHealthcheck() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2026-10-19T08:30:00Z"}`))
	}))
	defer srv.Close()

	s.Require().NoError(s.run("healthcheck", "--url", srv.URL))
	s.Contains(s.stdout.String(), "healthy at 2026-10-19T08:30:00Z")
}

func (s *CmdTestSuite) TestHealthcheckFailure() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s.Error(s.run("healthcheck", "--url", srv.URL))
}

func (s *CmdTestSuite) TestWatchFlags() {
	cmd, _, err := s.root().Find([]string{"watch"})
	s.Require().NoError(err)

	interval, err := cmd.Flags().GetDuration("interval")
	s.Require().NoError(err)
	s.Equal("30s", interval.String())

	url, err := cmd.Flags().GetString("url")
	s.Require().NoError(err)
	s.Equal(defaultURL, url)
}

func (s *CmdTestSuite) TestBench() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/health":
			_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2026-10-19T08:30:00Z"}`))
		case "/api/crowdsec-metrics":
			_, _ = w.Write([]byte(`[]`))
		default:
			_, _ = w.Write([]byte(`{"uptime":"1 day"}`))
		}
	}))
	defer srv.Close()

	s.Require().NoError(s.run("bench", "--url", srv.URL, "--passes", "1", "--parallel", "2", "--summary=false"))
	s.Contains(s.stdout.String(), "7 requests, 0 failed")
}

func (s *CmdTestSuite) TestVersion() {
	s.Require().NoError(s.run("--version"))
	s.Contains(s.stdout.String(), "test")
}

func TestCmdSuite(t *testing.T) {
	suite.Run(t, new(CmdTestSuite))
}
