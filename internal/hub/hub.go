// Package hub manages the local Redis container that carries a session's
// shared presence hash.
package hub

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	dockerpkg "github.com/dyluth/veil/internal/docker"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	// Port range for hub containers (allows 100 concurrent sessions)
	startPort = 6379
	endPort   = 6478

	redisPort nat.Port = "6379/tcp"
)

// Status represents the health of a hub container
type Status string

const (
	StatusRunning Status = "Running"
	StatusStopped Status = "Stopped"
)

// Info describes one hub container.
type Info struct {
	Session string `json:"session"`
	Status  Status `json:"status"`
	Port    int    `json:"port"`
	URL     string `json:"url"`
}

// Start creates and starts a Redis hub for session, publishing it on the
// next free localhost port. Returns the hub's Redis URL.
func Start(ctx context.Context, cli *client.Client, session, image string) (*Info, error) {
	if err := ValidateSession(session); err != nil {
		return nil, err
	}

	existing, err := hubContainers(ctx, cli, session)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("hub for session '%s' already exists", session)
	}

	port, err := FindNextAvailablePort(ctx, cli)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate hub port: %w", err)
	}

	labels := dockerpkg.BuildLabels(session, dockerpkg.GenerateRunID(), dockerpkg.ComponentHub)
	labels[dockerpkg.LabelRedisPort] = strconv.Itoa(port)

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image:  image,
		Labels: labels,
		ExposedPorts: nat.PortSet{
			redisPort: struct{}{},
		},
	}, &container.HostConfig{
		PortBindings: nat.PortMap{
			redisPort: []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: strconv.Itoa(port),
				},
			},
		},
	}, nil, nil, dockerpkg.HubContainerName(session))
	if err != nil {
		return nil, fmt.Errorf("failed to create hub container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("failed to start hub container: %w", err)
	}

	return &Info{Session: session, Status: StatusRunning, Port: port, URL: RedisURL(port)}, nil
}

// WaitReady pings the Redis at url every interval until it answers or ctx is done.
func WaitReady(ctx context.Context, url string, interval time.Duration) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("invalid hub URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("hub at %s not ready: %w", url, err)
		case <-ticker.C:
		}
	}
}

// Stop stops and removes the hub for session. Returns false if none existed.
func Stop(ctx context.Context, cli *client.Client, session string) (bool, error) {
	containers, err := hubContainers(ctx, cli, session)
	if err != nil {
		return false, err
	}
	if len(containers) == 0 {
		return false, nil
	}

	return true, removeContainers(ctx, cli, containers)
}

// containerRemover is the part of the docker client Stop needs.
type containerRemover interface {
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

func removeContainers(ctx context.Context, cli containerRemover, containers []types.Container) error {
	timeout := 10
	for _, c := range containers {
		// might already be stopped; removal below is forced
		if err := cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout}); err != nil {
			log.WithError(err).WithField("container", c.ID).Debug("hub container stop failed")
		}
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			return fmt.Errorf("failed to remove %s: %w", c.ID, err)
		}
	}
	return nil
}

// List returns every hub container, sorted by session name.
func List(ctx context.Context, cli *client.Client) ([]Info, error) {
	containers, err := hubContainers(ctx, cli, "")
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(containers))
	for _, c := range containers {
		infos = append(infos, Describe(c))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Session < infos[j].Session })
	return infos, nil
}

// Describe converts a hub container into Info.
func Describe(c types.Container) Info {
	info := Info{
		Session: c.Labels[dockerpkg.LabelSession],
		Status:  StatusStopped,
	}
	if c.State == "running" {
		info.Status = StatusRunning
	}
	if port, err := strconv.Atoi(c.Labels[dockerpkg.LabelRedisPort]); err == nil {
		info.Port = port
		info.URL = RedisURL(port)
	}
	return info
}

// FindNextAvailablePort finds the next port in 6379-6478 that no hub claims
// and that can be bound on localhost.
func FindNextAvailablePort(ctx context.Context, cli *client.Client) (int, error) {
	containers, err := hubContainers(ctx, cli, "")
	if err != nil {
		return 0, err
	}

	usedPorts := make(map[int]bool)
	for _, c := range containers {
		if port, err := strconv.Atoi(c.Labels[dockerpkg.LabelRedisPort]); err == nil {
			usedPorts[port] = true
		}
	}

	return firstFreePort(usedPorts, isPortBindable)
}

func firstFreePort(used map[int]bool, bindable func(int) bool) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if !used[port] && bindable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available hub ports (range %d-%d exhausted)", startPort, endPort)
}

// isPortBindable checks if a port can be bound on localhost.
func isPortBindable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// RedisURL returns the hub URL for a published port. Inside a container the
// host's published ports are reached through host.docker.internal.
func RedisURL(port int) string {
	host := "localhost"
	if _, err := os.Stat("/.dockerenv"); err == nil {
		host = "host.docker.internal"
	}
	return fmt.Sprintf("redis://%s:%d", host, port)
}

func hubContainers(ctx context.Context, cli *client.Client, session string) ([]types.Container, error) {
	filter := filters.NewArgs()
	filter.Add("label", fmt.Sprintf("%s=true", dockerpkg.LabelProject))
	filter.Add("label", fmt.Sprintf("%s=%s", dockerpkg.LabelComponent, dockerpkg.ComponentHub))
	if session != "" {
		filter.Add("label", fmt.Sprintf("%s=%s", dockerpkg.LabelSession, session))
	}

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list hub containers: %w", err)
	}
	return containers, nil
}
