package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

const inspectPollInterval = 50 * time.Millisecond

// execEngine is the part of the Docker Engine API used to run an exec session.
type execEngine interface {
	create(ctx context.Context, containerName string, argv []string) (string, error)
	attach(ctx context.Context, execID string) (io.ReadCloser, error)
	inspect(ctx context.Context, execID string) (running bool, exitCode int, err error)
	close() error
}

// DockerAPI runs commands inside containers through the Docker Engine API
// instead of the docker CLI. The daemon is located the same way the CLI does
// it (DOCKER_HOST and friends).
type DockerAPI struct {
	engine execEngine
}

// NewDockerAPI connects to the Docker daemon configured in the environment.
func NewDockerAPI() (*DockerAPI, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return &DockerAPI{engine: engineClient{cli: cli}}, nil
}

// ForContainer returns a Runner bound to the named container.
func (d *DockerAPI) ForContainer(name string) Runner {
	return dockerAPIRunner{engine: d.engine, container: name}
}

// Close releases the underlying Docker client.
func (d *DockerAPI) Close() error {
	return d.engine.close()
}

type dockerAPIRunner struct {
	engine    execEngine
	container string
}

// Run creates an exec session for the whitespace separated command, collects
// its demultiplexed output and checks the exit code.
func (r dockerAPIRunner) Run(ctx context.Context, command string) (string, error) {
	argv := strings.Fields(command)
	label := "docker exec " + r.container + " " + command

	execID, err := r.engine.create(ctx, r.container, argv)
	if err != nil {
		return "", &CommandError{Command: label, ExitCode: -1, Err: err}
	}

	stream, err := r.engine.attach(ctx, execID)
	if err != nil {
		return "", &CommandError{Command: label, ExitCode: -1, Err: err}
	}
	defer stream.Close()

	var stdout, stderr bytes.Buffer
	copied := make(chan error, 1)
	go func() {
		_, copyErr := stdcopy.StdCopy(&stdout, &stderr, stream)
		copied <- copyErr
	}()

	select {
	case err = <-copied:
	case <-ctx.Done():
		// Closing the stream unblocks the copy goroutine.
		_ = stream.Close()
		<-copied
		return "", &CommandError{Command: label, ExitCode: -1, Err: ctx.Err()}
	}
	if err != nil {
		return "", &CommandError{Command: label, Stderr: strings.TrimSpace(stderr.String()), ExitCode: -1, Err: err}
	}

	code, err := r.waitExitCode(ctx, execID)
	if err != nil {
		return "", &CommandError{Command: label, ExitCode: -1, Err: err}
	}
	if code != 0 {
		return "", &CommandError{
			Command:  label,
			Stderr:   strings.TrimSpace(stderr.String()),
			ExitCode: code,
			Err:      fmt.Errorf("%w: %d", ErrNonZeroExit, code),
		}
	}

	return stdout.String(), nil
}

// waitExitCode polls the exec session until the daemon reports it finished.
func (r dockerAPIRunner) waitExitCode(ctx context.Context, execID string) (int, error) {
	for {
		running, code, err := r.engine.inspect(ctx, execID)
		if err != nil {
			return -1, err
		}
		if !running {
			return code, nil
		}

		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-time.After(inspectPollInterval):
		}
	}
}

// engineClient adapts *client.Client to execEngine.
type engineClient struct {
	cli *client.Client
}

func (e engineClient) create(ctx context.Context, containerName string, argv []string) (string, error) {
	resp, err := e.cli.ContainerExecCreate(ctx, containerName, container.ExecOptions{
		Cmd:          argv,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (e engineClient) attach(ctx context.Context, execID string) (io.ReadCloser, error) {
	resp, err := e.cli.ContainerExecAttach(ctx, execID, container.ExecAttachOptions{})
	if err != nil {
		return nil, err
	}
	return &hijackedStream{Reader: resp.Reader, closeFn: resp.Close}, nil
}

func (e engineClient) inspect(ctx context.Context, execID string) (bool, int, error) {
	info, err := e.cli.ContainerExecInspect(ctx, execID)
	if err != nil {
		return false, -1, err
	}
	return info.Running, info.ExitCode, nil
}

func (e engineClient) close() error {
	return e.cli.Close()
}

// hijackedStream exposes an attached exec connection as an io.ReadCloser.
type hijackedStream struct {
	io.Reader
	closeFn func()
}

func (h *hijackedStream) Close() error {
	h.closeFn()
	return nil
}
