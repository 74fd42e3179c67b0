package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ferrymanlabs/ferryman/internal/config"
	"github.com/ferrymanlabs/ferryman/internal/container"
	"github.com/ferrymanlabs/ferryman/internal/container/docker"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
	"github.com/ferrymanlabs/ferryman/internal/runtime/containerized"
	"github.com/ferrymanlabs/ferryman/internal/runtime/inproc"
	"github.com/ferrymanlabs/ferryman/internal/runtime/langbridge"
	"github.com/ferrymanlabs/ferryman/internal/runtime/subprocess"
	"github.com/ferrymanlabs/ferryman/internal/runtime/throttle"
)

// buildRegistry constructs and registers an adapter per configured
// runtime. The container engine is created lazily, only when a
// container runtime is declared.
func buildRegistry(cfg *config.Config) (*runtime.Registry, error) {
	registry := runtime.NewRegistry()

	var engine container.Runtime
	for _, rc := range cfg.Runtimes {
		var (
			adapter runtime.Adapter
			err     error
		)
		switch rc.Type {
		case config.TypeLocal:
			adapter = inproc.NewNamed(rc.ID, rc.Name)

		case config.TypeLangBridge:
			adapter = langbridge.New(langbridge.Config{SocketDir: cfg.Paths.SocketDir})

		case config.TypeSubprocess:
			adapter = subprocess.New(rc.ID, rc.Name, &subprocess.StaticSpec{
				Socket: filepath.Join(cfg.Paths.SocketDir, rc.ID+".sock"),
				Argv:   rc.Command,
			})

		case config.TypeContainer:
			if engine == nil {
				engine, err = docker.NewRuntime()
				if err != nil {
					return nil, fmt.Errorf("runtime %q: %w", rc.ID, err)
				}
			}
			adapter = containerized.New(containerized.Config{
				ID:        rc.ID,
				Name:      rc.Name,
				Image:     rc.Image,
				Cmd:       rc.Command,
				SocketDir: cfg.Paths.SocketDir,
			}, engine)

		default:
			return nil, fmt.Errorf("runtime %q: unknown type %q", rc.ID, rc.Type)
		}

		if cfg.Limits.RequestsPerSecond > 0 {
			burst := cfg.Limits.Burst
			if burst < 1 {
				burst = 1
			}
			adapter = throttle.Wrap(adapter, cfg.Limits.RequestsPerSecond, burst)
		}

		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
