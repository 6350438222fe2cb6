package telegram

import (
	"context"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/ilyalavrinov/coviddash/pkg/tgbotbase"
	log "github.com/sirupsen/logrus"
	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

// subscriptionHandler sends the global view to subscribed chats after every batch.
type subscriptionHandler struct {
	tgbotbase.BaseHandler
	holder *dashboard.Holder
	props  tgbotbase.PropertyStorage
	loc    *covidstats.Locale

	batches chan dashboard.Batch
}

var _ tgbotbase.BackgroundMessageHandler = &subscriptionHandler{}

type SubscriptionHandler interface {
	tgbotbase.BackgroundMessageHandler
	// BatchCompleted queues a notification; it does not wait for delivery.
	BatchCompleted(b dashboard.Batch, err error)
}

func NewSubscriptionHandler(holder *dashboard.Holder, props tgbotbase.PropertyStorage, loc *covidstats.Locale) SubscriptionHandler {
	return &subscriptionHandler{
		holder:  holder,
		props:   props,
		loc:     loc,
		batches: make(chan dashboard.Batch, 1),
	}
}

func (h *subscriptionHandler) Init(outMsgCh chan<- tgbotapi.Chattable, srvCh chan<- tgbotbase.ServiceMsg) {
	h.OutMsgCh = outMsgCh
}

func (h *subscriptionHandler) Name() string {
	return "covid dashboard subscriptions"
}

func (h *subscriptionHandler) BatchCompleted(b dashboard.Batch, err error) {
	if b.Global.Err != nil {
		log.WithField("err", b.Global.Err).Debug("No fresh global summary, subscribers are not notified")
		return
	}
	select {
	case h.batches <- b:
	default:
		log.Debug("Previous notification is still pending, skipping")
	}
}

func (h *subscriptionHandler) Run() {
	go func() {
		for range h.batches {
			h.notify(context.TODO())
		}
	}()
}

func (h *subscriptionHandler) notify(ctx context.Context) {
	if h.props == nil {
		return
	}
	props, err := h.props.GetEveryHavingProperty(ctx, propSubscribe)
	if err != nil {
		log.WithField("err", err).Error("Could not get subscribed chats")
		return
	}
	for _, prop := range props {
		if prop.Value != "1" || prop.User != 0 {
			continue
		}
		loc := chatLocale(ctx, h.props, h.loc, 0, prop.Chat)
		v := h.holder.View(dashboard.TabGlobal, loc)
		if !v.Available[dashboard.SectionSummary] {
			return
		}
		msg := tgbotapi.NewMessage(int64(prop.Chat), viewMessage(v, loc))
		msg.ParseMode = "MarkdownV2"
		msg.DisableWebPagePreview = true
		h.OutMsgCh <- msg
	}
}
