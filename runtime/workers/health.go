package workers

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var _ contract.Worker = (*HealthWorker)(nil)

// Probe checks one dependency of the relay.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// StatusSetter is satisfied by the gRPC health server.
type StatusSetter interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

// HealthWorker runs every probe at each tick and reports NOT_SERVING as long
// as one of them fails. Only transitions are logged.
type HealthWorker struct {
	log          *slog.Logger
	probes       []Probe
	status       StatusSetter
	interval     time.Duration
	probeTimeout time.Duration
	serving      bool
}

func NewHealthWorker(log *slog.Logger, status StatusSetter, interval, probeTimeout time.Duration, probes ...Probe) *HealthWorker {
	return &HealthWorker{
		log:          log,
		probes:       probes,
		status:       status,
		interval:     interval,
		probeTimeout: probeTimeout,
		serving:      true,
	}
}

func (w *HealthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health probes")
			return nil
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *HealthWorker) probe(ctx context.Context) {
	var failing []string
	for _, p := range w.probes {
		probeCtx, cancel := context.WithTimeout(ctx, w.probeTimeout)
		err := p.Check(probeCtx)
		cancel()
		if err != nil {
			w.log.Debug("Probe failed", "probe", p.Name, "error", err)
			failing = append(failing, p.Name)
		}
	}

	serving := len(failing) == 0
	if serving == w.serving {
		return
	}
	w.serving = serving
	if serving {
		w.log.Info("Dependencies recovered, serving again")
		w.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return
	}
	w.log.Warn("Dependencies failing, not serving", "probes", failing)
	w.status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
}
