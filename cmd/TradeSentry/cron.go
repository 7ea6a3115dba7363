package main

import (
	"context"
	"time"

	"TradeSentry/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// tickRetention is how long price ticks are kept before the hourly
// cleanup removes them.
const tickRetention = 7 * 24 * time.Hour

// cronRunner wraps the cron scheduler as a Kratos transport server so
// the application lifecycle starts and stops it.
type cronRunner struct {
	c      *cron.Cron
	helper *log.Helper
}

// newCronRunner registers the background jobs: the alert sweep every
// minute and the price tick cleanup every hour.
func newCronRunner(alerts *biz.AlertUsecase, market *biz.MarketUsecase, logger log.Logger) (*cronRunner, error) {
	helper := log.NewHelper(logger)
	c := cron.New(cron.WithSeconds())

	// Every minute, on the minute.
	_, err := c.AddFunc("0 * * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()

		fired, err := alerts.EvaluateAlerts(ctx)
		if err != nil {
			helper.Errorw("msg", "alert sweep failed", "type", "scheduler", "error", err)
			return
		}
		if fired > 0 {
			helper.Infow("msg", "alert sweep completed", "type", "scheduler", "fired", fired)
		}
	})
	if err != nil {
		return nil, err
	}

	// Every hour, on the hour.
	_, err = c.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := market.CleanupStaleTicks(ctx, tickRetention); err != nil {
			helper.Errorw("msg", "price tick cleanup failed", "type", "scheduler", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return &cronRunner{c: c, helper: helper}, nil
}

// Start implements transport.Server.
func (r *cronRunner) Start(ctx context.Context) error {
	r.c.Start()
	r.helper.Infow("msg", "cron scheduler started", "type", "scheduler",
		"jobs", len(r.c.Entries()))
	return nil
}

// Stop implements transport.Server.
func (r *cronRunner) Stop(ctx context.Context) error {
	stopCtx := r.c.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.helper.Infow("msg", "cron scheduler stopped", "type", "scheduler")
	return nil
}
