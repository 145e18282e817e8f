// Package healthz exposes the standard gRPC health service, reporting
// SERVING while the store answers pings.
package healthz

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name the pipeline reports under. The empty name reports the
// server as a whole and follows the same status.
const Service = "videomcq"

// DefaultInterval is how often Run pings the store.
const DefaultInterval = 15 * time.Second

// Pinger is anything whose reachability decides health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker keeps a gRPC health server in sync with a Pinger.
type Checker struct {
	srv      *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger

	mu      sync.RWMutex
	lastErr error
	checked time.Time
}

// NewChecker returns a Checker. The status starts as NOT_SERVING until the
// first Check.
func NewChecker(p Pinger, interval time.Duration, logger logrus.FieldLogger) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Checker{
		srv:      health.NewServer(),
		pinger:   p,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
	c.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Register adds the health service to s.
func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.srv)
}

func (c *Checker) set(status healthpb.HealthCheckResponse_ServingStatus) {
	c.srv.SetServingStatus("", status)
	c.srv.SetServingStatus(Service, status)
}

// Check pings once and updates the served status.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.pinger.Ping(ctx)

	c.mu.Lock()
	changed := (err == nil) != (c.lastErr == nil) || c.checked.IsZero()
	c.lastErr = err
	c.checked = time.Now()
	c.mu.Unlock()

	if err != nil {
		c.set(healthpb.HealthCheckResponse_NOT_SERVING)
		if changed {
			c.logger.WithError(err).Warn("Store unreachable, reporting NOT_SERVING")
		}
		return err
	}
	c.set(healthpb.HealthCheckResponse_SERVING)
	if changed {
		c.logger.Info("Store reachable, reporting SERVING")
	}
	return nil
}

// LastCheck returns when the last Check ran and its result.
func (c *Checker) LastCheck() (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checked, c.lastErr
}

// Run checks immediately and then every interval until ctx is done, at which
// point all services are marked NOT_SERVING.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
