// Package health runs periodic liveness probes against every registered
// runtime and publishes the result as a gauge. A runtime is considered
// up when its provider list is non-empty, since discovery requires a
// working socket round trip for the process-backed runtimes. Socket-backed
// runtimes additionally have their socket file stat-checked, so a child
// that died after discovery is reported down.
package health

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ferrymanlabs/ferryman/internal/logger"
	"github.com/ferrymanlabs/ferryman/internal/metrics"
	"github.com/ferrymanlabs/ferryman/internal/runtime"
)

// cronParser is configured for standard 5-field cron (minute hour day month weekday)
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// socketed is satisfied by the socket-backed adapters; their socket file
// is stat-checked on every probe. The provider cache outlives the child,
// so the count alone cannot detect a runtime that died after Start.
type socketed interface {
	SocketPath() string
}

// ValidateSchedule checks a cron expression before the checker accepts it.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Checker probes runtimes on a cron schedule.
type Checker struct {
	registry *runtime.Registry
	cron     *cron.Cron

	mu     sync.Mutex
	status map[string]Status
}

// Status is the latest probe result for one runtime.
type Status struct {
	RuntimeID string
	Up        bool
	Providers int
	CheckedAt time.Time
}

// NewChecker creates a checker over the registry. schedule is a 5-field
// cron expression, e.g. "* * * * *" for every minute.
func NewChecker(registry *runtime.Registry, schedule string) (*Checker, error) {
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}

	c := &Checker{
		registry: registry,
		cron:     cron.New(cron.WithParser(cronParser)),
		status:   make(map[string]Status),
	}
	if _, err := c.cron.AddFunc(schedule, c.CheckAll); err != nil {
		return nil, fmt.Errorf("failed to schedule health checks: %w", err)
	}
	return c, nil
}

// Start begins probing. The first probe runs immediately so the gauges
// are populated before the first cron tick.
func (c *Checker) Start() {
	c.CheckAll()
	c.cron.Start()
}

// Stop halts probing, waiting for an in-flight probe to finish.
func (c *Checker) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

// CheckAll probes every registered runtime once.
func (c *Checker) CheckAll() {
	for _, a := range c.registry.List() {
		providers := a.Providers()
		up := len(providers) > 0

		if s, ok := a.(socketed); ok && up {
			if _, err := os.Stat(s.SocketPath()); err != nil {
				up = false
			}
		}

		metrics.SetRuntimeUp(a.ID(), up)
		if !up {
			logger.WithRuntime(a.ID()).Warn("health check failed", "providers", len(providers))
		}

		c.mu.Lock()
		c.status[a.ID()] = Status{
			RuntimeID: a.ID(),
			Up:        up,
			Providers: len(providers),
			CheckedAt: time.Now(),
		}
		c.mu.Unlock()
	}
}

// Snapshot returns the latest status per runtime.
func (c *Checker) Snapshot() []Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Status, 0, len(c.status))
	for _, s := range c.status {
		out = append(out, s)
	}
	return out
}
