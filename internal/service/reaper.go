package service

import (
	"context"
	"time"

	"github.com/iliyamo/tresh-api/internal/logging"
)

// Reaper periodically deletes refresh tokens whose own expiry has passed.
// Used and revoked records that have not expired are kept.
type Reaper struct {
	tokens   RefreshTokenStore
	interval time.Duration
	log      logging.Logger
	now      func() time.Time
}

func NewReaper(tokens RefreshTokenStore, interval time.Duration, log logging.Logger) *Reaper {
	return &Reaper{tokens: tokens, interval: interval, log: log, now: time.Now}
}

// Run purges once per interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.PurgeOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error(ctx, "reaper: purge failed", "err", err)
			}
		}
	}
}

// PurgeOnce deletes every expired record and returns the count.
func (r *Reaper) PurgeOnce(ctx context.Context) (int64, error) {
	n, err := r.tokens.PurgeExpired(ctx, r.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Info(ctx, "reaper: purged expired refresh tokens", "count", n)
	}
	return n, nil
}
