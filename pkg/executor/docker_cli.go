package executor

import (
	"context"
	"strings"
)

const defaultDockerBinary = "docker"

// DockerCLI runs commands inside containers through `docker exec`.
// It works with any Docker compatible CLI found in PATH.
type DockerCLI struct {
	Binary string
}

// ForContainer returns a Runner bound to the named container.
func (d DockerCLI) ForContainer(name string) Runner {
	binary := d.Binary
	if binary == "" {
		binary = defaultDockerBinary
	}
	return dockerCLIRunner{binary: binary, container: name}
}

type dockerCLIRunner struct {
	binary    string
	container string
}

// Run executes `docker exec <container> <argv...>`. The command is split on
// whitespace; no shell is involved inside the container.
func (r dockerCLIRunner) Run(ctx context.Context, command string) (string, error) {
	args := append([]string{"exec", r.container}, strings.Fields(command)...)
	return runProcess(ctx, r.binary, args...)
}
