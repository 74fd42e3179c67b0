// Package container abstracts the container engine used by
// container-backed runtimes. The interface covers exactly what those
// runtimes need: image presence, container lifecycle and daemon health.
package container

import "context"

// MountType identifies the mount mechanism.
type MountType string

const (
	MountTypeBind   MountType = "bind"
	MountTypeVolume MountType = "volume"
)

// Mount describes a filesystem mount into a container.
type Mount struct {
	Type     MountType
	Source   string
	Target   string
	ReadOnly bool
}

// CreateConfig holds the parameters for creating a container.
type CreateConfig struct {
	Name        string
	Image       string
	Cmd         []string
	Env         []string
	Labels      map[string]string
	Mounts      []Mount
	AutoRemove  bool
	NetworkMode string
}

// Runtime is the container engine contract.
type Runtime interface {
	// Name identifies the engine, e.g. "docker".
	Name() string

	// IsAvailable reports whether the engine daemon is reachable.
	IsAvailable() bool

	// Ping verifies connectivity to the engine daemon.
	Ping(ctx context.Context) error

	// ImageExists reports whether the image is present locally.
	ImageExists(ctx context.Context, image string) (bool, error)

	// Pull fetches an image from its registry.
	Pull(ctx context.Context, image string) error

	// Create creates a container and returns its ID.
	Create(ctx context.Context, cfg CreateConfig) (string, error)

	// Start starts a created container.
	Start(ctx context.Context, containerID string) error

	// Stop stops a running container.
	Stop(ctx context.Context, containerID string) error

	// Remove deletes a container, forcibly if requested.
	Remove(ctx context.Context, containerID string, force bool) error

	// Close releases the engine client.
	Close() error
}
