package coviddash

import (
	"context"
	"errors"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/ilyalavrinov/coviddash/pkg/report"
	"github.com/ilyalavrinov/coviddash/pkg/tgbotbase"
	log "github.com/sirupsen/logrus"
)

const workbookName = "coviddash.xlsx"

// BatchListener is notified after every finished batch.
type BatchListener func(b dashboard.Batch, err error)

// refresher starts batches on demand and on schedule, then publishes the results.
type refresher struct {
	ctx       context.Context
	holder    *dashboard.Holder
	loc       *covidstats.Locale
	publisher *report.Publisher
	interval  time.Duration
	listeners []BatchListener
}

var _ tgbotbase.CronJob = &refresher{}

func newRefresher(ctx context.Context, holder *dashboard.Holder, loc *covidstats.Locale, publisher *report.Publisher, interval time.Duration) *refresher {
	return &refresher{
		ctx:       ctx,
		holder:    holder,
		loc:       loc,
		publisher: publisher,
		interval:  interval,
	}
}

func (r *refresher) addListener(l BatchListener) {
	r.listeners = append(r.listeners, l)
}

// Refresh returns dashboard.ErrBatchInFlight if a batch is already running.
func (r *refresher) Refresh() error {
	return r.holder.ActivateAsync(r.ctx, r.completed)
}

func (r *refresher) Do(scheduledWhen time.Time, cron tgbotbase.Cron) {
	b, err := r.holder.Activate(r.ctx)
	if errors.Is(err, dashboard.ErrBatchInFlight) {
		log.Debug("Scheduled refresh skipped, batch is in flight")
	} else {
		r.completed(b, err)
	}

	if r.interval <= 0 || r.ctx.Err() != nil {
		return
	}
	next := scheduledWhen.Add(r.interval)
	if now := time.Now(); next.Before(now) {
		next = now.Add(r.interval)
	}
	log.WithField("when", next).Debug("Next refresh scheduled")
	cron.AddJob(next, r)
}

func (r *refresher) completed(b dashboard.Batch, err error) {
	r.publish()
	for _, l := range r.listeners {
		l(b, err)
	}
}

func (r *refresher) publish() {
	if r.publisher == nil {
		return
	}
	data, err := report.WorkbookBytes(
		r.holder.View(dashboard.TabGlobal, r.loc),
		r.holder.View(dashboard.TabHistory, r.loc),
		r.holder.View(dashboard.TabCountry, r.loc),
		r.loc)
	if err != nil {
		log.WithField("err", err).Warn("Nothing to publish")
		return
	}
	path, err := r.publisher.Publish(workbookName, data)
	if err != nil {
		log.WithField("err", err).Error("Could not publish workbook")
		return
	}
	log.WithField("path", path).Info("Workbook published")
}
