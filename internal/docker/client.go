package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
)

// NewClient connects to the Docker daemon from the environment and pings it,
// so callers fail early with a readable message instead of on first use.
func NewClient(ctx context.Context) (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf(`Docker daemon not accessible: %w

The presence hub runs Redis in a container. Start Docker, or point
veil at an existing Redis with --redis-url / VEIL_REDIS_URL.`, err)
	}

	return cli, nil
}
