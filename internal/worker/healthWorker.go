// Package worker runs background jobs of the shortener.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DefaultHealthInterval is the pause between storage pings.
const DefaultHealthInterval = 10 * time.Second

const pingTimeout = 3 * time.Second

type Pinger interface {
	PingContext(context.Context) error
}

// StatusSetter is satisfied by *health.Server.
type StatusSetter interface {
	SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus)
}

// HealthWorker pings the storage on a ticker and publishes the result to
// the gRPC health service. Only transitions are logged.
type HealthWorker struct {
	pinger   Pinger
	status   StatusSetter
	services []string
	interval time.Duration
	logger   *zap.Logger

	checked bool
	healthy bool
}

// NewHealthWorker reports into the given health services; "" is the
// overall server status.
func NewHealthWorker(logger *zap.Logger, pinger Pinger, status StatusSetter, interval time.Duration, services ...string) *HealthWorker {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if len(services) == 0 {
		services = []string{""}
	}

	return &HealthWorker{
		pinger:   pinger,
		status:   status,
		services: services,
		interval: interval,
		logger:   logger,
	}
}

// Run checks once immediately, then on every tick until ctx is done.
func (w *HealthWorker) Run(ctx context.Context) error {
	w.logger.Info("storage health worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("storage health worker stopped")
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check pings the storage once and updates the health status. It reports
// whether the storage answered.
func (w *HealthWorker) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := w.pinger.PingContext(ctx)
	healthy := err == nil

	if !w.checked || healthy != w.healthy {
		if healthy {
			w.logger.Info("storage is reachable")
		} else {
			w.logger.Error("storage is unreachable", zap.Error(err))
		}
	}
	w.checked = true
	w.healthy = healthy

	servingStatus := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
	}
	for _, svc := range w.services {
		w.status.SetServingStatus(svc, servingStatus)
	}

	return healthy
}
