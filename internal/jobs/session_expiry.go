package jobs

import (
	"context"
	"log/slog"
	"time"

	"diamondhost/admin-console/internal/metrics"
)

// SessionExpirer is the part of the session manager the expiry job drives.
type SessionExpirer interface {
	ExpireSessions(ctx context.Context, now time.Time) int
	Len() int
}

// StartSessionExpiryJob ends sessions whose identity token has lapsed. It
// runs every interval until ctx is cancelled.
func StartSessionExpiryJob(ctx context.Context, interval time.Duration, sessions SessionExpirer, m *metrics.Metrics, log *slog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, interval)
				ended := sessions.ExpireSessions(tickCtx, time.Now().UTC())
				cancel()
				if ended > 0 {
					log.Info("session expiry job ended sessions", "count", ended)
				}
				m.ActiveSessions(sessions.Len())
			}
		}
	}()
}
