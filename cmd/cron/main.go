package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicflow/subscription-service/internal/biz"
	"clinicflow/subscription-service/internal/conf"
	"clinicflow/subscription-service/internal/logger"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

const defaultJobTimeout = 5 * time.Minute

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

// CronApp holds what the scheduled jobs need
type CronApp struct {
	subscriptionUsecase *biz.SubscriptionUsecase
	logger              log.Logger
}

// newLogger builds the cron logger; the cleanup closes the rotating log file.
func newLogger(c *conf.Bootstrap) (log.Logger, func()) {
	zl := logger.NewFromConf(c.Log)
	cleanup := func() {
		_ = zl.Close()
	}
	return log.With(zl,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "subscription-cron",
	), cleanup
}

func main() {
	flag.Parse()

	bc, err := conf.Load(flagconf)
	if err != nil {
		panic(err)
	}
	if err := bc.ValidateCron(); err != nil {
		panic(err)
	}

	app, cleanup, err := wireApp(bc)
	if err != nil {
		panic(err)
	}
	defer cleanup()
	helper := log.NewHelper(app.logger)

	timeout, _ := conf.ParseDuration(bc.Cron.JobTimeout)
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	// seconds-first specs
	cronScheduler := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	// 1. lapsed trial sweep
	_, err = cronScheduler.AddFunc(bc.Cron.TrialExpirySpec, func() {
		helper.Info("[CRON] Starting lapsed trial sweep...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		results, err := app.subscriptionUsecase.ExpireLapsedTrials(ctx)
		if err != nil {
			helper.Errorf("[CRON] Error expiring lapsed trials: %v", err)
		}
		expired, failed := 0, 0
		for _, result := range results {
			if result.Expired {
				expired++
				continue
			}
			if result.ErrorMessage != "" {
				failed++
				helper.Warnf("[CRON] Trial expiry failed: account=%s, plan=%s, error=%s",
					result.AccountID, result.PlanType, result.ErrorMessage)
			}
		}
		helper.Infof("[CRON] Finished lapsed trial sweep: checked=%d, expired=%d, failed=%d", len(results), expired, failed)
	})
	if err != nil {
		helper.Errorf("Failed to add trial expiry job: %v", err)
	}

	// 2. trial ending reminder; delivery belongs to the notification service
	if bc.Cron.TrialReminderSpec != "" {
		_, err = cronScheduler.AddFunc(bc.Cron.TrialReminderSpec, func() {
			helper.Info("[CRON] Starting trial ending reminder check...")
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			subs, err := app.subscriptionUsecase.ListTrialsEndingSoon(ctx, bc.Cron.ReminderDays)
			if err != nil {
				helper.Errorf("[CRON] Error listing trials ending soon: %v", err)
				return
			}
			for _, sub := range subs {
				endsAt := sub.TrialEndsAt()
				if endsAt == nil {
					continue
				}
				helper.Infof("[CRON] Reminder: account %s trial (plan: %s) ends at %s",
					sub.AccountID, sub.PlanType, endsAt.Format(time.RFC3339))
			}
			helper.Info("[CRON] Finished trial ending reminder check")
		})
		if err != nil {
			helper.Errorf("Failed to add trial reminder job: %v", err)
		}
	}

	cronScheduler.Start()
	helper.Infof("Cron jobs started: trial expiry %q, trial reminder %q",
		bc.Cron.TrialExpirySpec, bc.Cron.TrialReminderSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	helper.Info("Shutting down gracefully...")

	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		helper.Info("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		helper.Warn("Cron jobs forced to stop after timeout")
	}
}
