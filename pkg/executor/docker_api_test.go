package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/suite"
)

type blockingStream struct {
	once   sync.Once
	closed chan struct{}
}

func newBlockingStream() *blockingStream {
	return &blockingStream{closed: make(chan struct{})}
}

func (b *blockingStream) Read(p []byte) (int, error) {
	<-b.closed
	return 0, io.ErrClosedPipe
}

func (b *blockingStream) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

type fakeEngine struct {
	createErr    error
	attachErr    error
	inspectErr   error
	stream       io.ReadCloser
	runningPolls int
	exitCode     int

	container string
	argv      []string
	closed    bool
}

func (f *fakeEngine) create(ctx context.Context, containerName string, argv []string) (string, error) {
	f.container = containerName
	f.argv = argv
	return "exec-1", f.createErr
}

func (f *fakeEngine) attach(ctx context.Context, execID string) (io.ReadCloser, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	return f.stream, nil
}

func (f *fakeEngine) inspect(ctx context.Context, execID string) (bool, int, error) {
	if f.inspectErr != nil {
		return false, -1, f.inspectErr
	}
	if f.runningPolls > 0 {
		f.runningPolls--
		return true, 0, nil
	}
	return false, f.exitCode, nil
}

func (f *fakeEngine) close() error {
	f.closed = true
	return nil
}

// multiplexed builds a stream framed the way the daemon frames attached output.
func multiplexed(stdout, stderr string) io.ReadCloser {
	var buf bytes.Buffer
	if stdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(stdout))
	}
	if stderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(stderr))
	}
	return io.NopCloser(&buf)
}

// DockerAPITestSuite tests the Engine API exec strategy
type DockerAPITestSuite struct {
	suite.Suite
	engine *fakeEngine
	api    *DockerAPI
	ctx    context.Context
}

// SetupTest runs before each test
func (s *DockerAPITestSuite) SetupTest() {
	s.engine = &fakeEngine{}
	s.api = &DockerAPI{engine: s.engine}
	s.ctx = context.Background()
}

// TestRunCollectsStdout tests a successful exec session
func (s *DockerAPITestSuite) TestRunCollectsStdout() {
	s.engine.stream = multiplexed("Local API Decisions:\n", "warning: deprecated\n")
	s.engine.runningPolls = 2

	output, err := s.api.ForContainer("crowdsec").Run(s.ctx, "cscli metrics")

	s.Require().NoError(err)
	s.Equal("Local API Decisions:\n", output)
	s.Equal("crowdsec", s.engine.container)
	s.Equal([]string{"cscli", "metrics"}, s.engine.argv)
}

// TestRunNonZeroExit tests that the exit code is checked after the stream ends
func (s *DockerAPITestSuite) TestRunNonZeroExit() {
	s.engine.stream = multiplexed("", "cscli: unknown command\n")
	s.engine.exitCode = 2

	_, err := s.api.ForContainer("crowdsec").Run(s.ctx, "cscli metricz")

	var cmdErr *CommandError
	s.Require().ErrorAs(err, &cmdErr)
	s.Equal(2, cmdErr.ExitCode)
	s.Equal("cscli: unknown command", cmdErr.Stderr)
	s.ErrorIs(err, ErrNonZeroExit)
}

// TestRunCreateAndAttachErrors tests daemon errors before any output
func (s *DockerAPITestSuite) TestRunCreateAndAttachErrors() {
	s.engine.createErr = errors.New("No such container: crowdsec")
	_, err := s.api.ForContainer("crowdsec").Run(s.ctx, "cscli metrics")
	s.ErrorContains(err, "No such container")

	s.engine.createErr = nil
	s.engine.attachErr = errors.New("attach refused")
	_, err = s.api.ForContainer("crowdsec").Run(s.ctx, "cscli metrics")
	s.ErrorContains(err, "attach refused")
}

// TestRunInspectError tests a failure reading the exit code
func (s *DockerAPITestSuite) TestRunInspectError() {
	s.engine.stream = multiplexed("out", "")
	s.engine.inspectErr = errors.New("inspect failed")

	_, err := s.api.ForContainer("crowdsec").Run(s.ctx, "cscli metrics")

	s.ErrorContains(err, "inspect failed")
}

// TestRunHonorsTimeout tests that a stalled stream is abandoned at the deadline
func (s *DockerAPITestSuite) TestRunHonorsTimeout() {
	s.engine.stream = newBlockingStream()
	executor := New(LocalRunner{}, s.api, 100*time.Millisecond)

	start := time.Now()
	result := executor.Execute(s.ctx, "cscli metrics", "crowdsec")

	s.True(result.Failed)
	s.Contains(result.Message, ErrTimeout.Error())
	s.Less(time.Since(start), 2*time.Second)
}

// TestClose tests that closing releases the engine
func (s *DockerAPITestSuite) TestClose() {
	s.NoError(s.api.Close())
	s.True(s.engine.closed)
}

// TestExecutorCloseReleasesBackend tests that the executor closes an API backend
func (s *DockerAPITestSuite) TestExecutorCloseReleasesBackend() {
	executor := New(LocalRunner{}, s.api, time.Second)
	s.NoError(executor.Close())
	s.True(s.engine.closed)

	s.NoError(New(LocalRunner{}, DockerCLI{}, time.Second).Close())
}

// TestDockerAPISuite runs the Engine API test suite
func TestDockerAPISuite(t *testing.T) {
	suite.Run(t, new(DockerAPITestSuite))
}
