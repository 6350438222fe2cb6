package coviddash

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyalavrinov/coviddash/internal/coviddash/api"
	"github.com/ilyalavrinov/coviddash/internal/coviddash/telegram"
	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
	"github.com/ilyalavrinov/coviddash/pkg/report"
	"github.com/ilyalavrinov/coviddash/pkg/tgbotbase"
	log "github.com/sirupsen/logrus"
)

const snapshotDB = "coviddash"

func Start(cfgFilename string) error {
	log.SetLevel(log.DebugLevel)
	log.Info("Starting covid dashboard")

	cfg, err := NewConfig(cfgFilename)
	if err != nil {
		log.WithField("err", err).Error("Covid dashboard cannot be started")
		return err
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	} else {
		log.WithFields(log.Fields{"level": cfg.Log.Level, "err": err}).Warn("Unknown log level, keeping debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := covidstats.NewLocale(cfg.Dashboard.Locale)
	if err != nil {
		log.WithFields(log.Fields{"locale": cfg.Dashboard.Locale, "err": err}).Warn("Falling back to default locale")
		loc = covidstats.MustLocale(covidstats.DefaultLocale)
	}

	client := diseasesh.New(cfg.Dashboard.APIBase, diseasesh.WithTimeout(cfg.RequestTimeout()))

	var opts []dashboard.Option
	var props tgbotbase.PropertyStorage
	if cfg.Redis.Server != "" {
		pool := tgbotbase.NewRedisPool(ctx, cfg.Redis)
		opts = append(opts, dashboard.WithStorage(dashboard.NewRedisStorage(pool.GetConnByName(snapshotDB), cfg.SnapshotTTL())))
		props = tgbotbase.NewRedisPropertyStorage(pool)
	} else {
		log.Info("Redis is not configured, snapshots and chat settings are kept in memory only")
	}

	holder := dashboard.NewHolder(client, cfg.DashboardConfig(), opts...)
	if err := holder.Restore(ctx); err != nil {
		log.WithField("err", err).Warn("Starting without stored snapshot")
	}

	var publisher *report.Publisher
	if cfg.WebDAV.Server != "" {
		publisher = report.NewPublisher(cfg.WebDAV.Server, cfg.WebDAV.User, cfg.WebDAV.Pass, cfg.WebDAV.Dir)
	}
	refresher := newRefresher(ctx, holder, loc, publisher, cfg.RefreshInterval())

	var bot *tgbotbase.Bot
	if cfg.botEnabled() {
		bot, err = tgbotbase.NewBot(cfg.Config)
		if err != nil {
			log.WithField("err", err).Error("Could not create bot")
			return err
		}
		subscriptions := telegram.NewSubscriptionHandler(holder, props, loc)
		refresher.addListener(subscriptions.BatchCompleted)
		bot.AddHandler(tgbotbase.NewIncomingMessageDealer(telegram.NewCovidHandler(holder, props, refresher, loc)))
		bot.AddHandler(tgbotbase.NewBackgroundMessageDealer(subscriptions))
	}

	cron := tgbotbase.NewCron()
	cron.AddJob(time.Now(), refresher)

	server := api.NewServer(holder, loc, refresher)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.HTTP.Listen)
	}()

	if bot != nil {
		go func() {
			bot.Start(ctx)
			stop()
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			log.WithField("err", err).Error("HTTP API has stopped")
		}
	}
	stop()

	if shutdownErr := server.Shutdown(context.Background()); shutdownErr != nil {
		log.WithField("err", shutdownErr).Error("Could not shut down HTTP API")
	}
	log.Info("Covid dashboard has stopped")
	return err
}
