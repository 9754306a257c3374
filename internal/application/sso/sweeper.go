package sso

import (
	"context"
	"time"

	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// Sweeper purga periódicamente los tokens vencidos del almacén Postgres.
// Mongo no lo necesita: el índice TTL hace el mismo trabajo.
type Sweeper struct {
	svc       *Service
	interval  time.Duration
	retention time.Duration
	log       *logger.Logger
}

// NewSweeper construye el barrido; interval <= 0 usa 10 minutos.
func NewSweeper(svc *Service, interval, retention time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Sweeper{svc: svc, interval: interval, retention: retention, log: log.Component("sso_sweeper")}
}

// Run bloquea hasta que ctx se cancele.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweepOnce(ctx)
		case <-ctx.Done():
			w.log.Info().Msg("barrido de tokens detenido")
			return
		}
	}
}

func (w *Sweeper) sweepOnce(ctx context.Context) {
	n, err := w.svc.SweepExpired(ctx, w.retention)
	if err != nil {
		w.log.Error().Err(err).Msg("barrido de tokens sso")
		return
	}
	if n > 0 {
		w.log.Info().Int64("deleted", n).Msg("tokens sso vencidos purgados")
	}
}
