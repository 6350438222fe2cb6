package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/ilyalavrinov/coviddash/pkg/report"
	"github.com/ilyalavrinov/coviddash/pkg/tgbotbase"
	log "github.com/sirupsen/logrus"
	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

const (
	propLocale    = "coviddashLocale"
	propSubscribe = "coviddashSubscribe"

	cmdCovid       = "covid"
	cmdPie         = "covidpie"
	cmdXlsx        = "covidxlsx"
	cmdLocale      = "covidlocale"
	cmdRefresh     = "covidrefresh"
	cmdSubscribe   = "covidsubscribe"
	cmdUnsubscribe = "covidunsubscribe"
)

// Refresher starts a new batch in the background.
type Refresher interface {
	Refresh() error
}

type covidHandler struct {
	tgbotbase.BaseHandler
	holder    *dashboard.Holder
	props     tgbotbase.PropertyStorage
	refresher Refresher
	loc       *covidstats.Locale

	mu   sync.Mutex
	tabs map[tgbotbase.ChatID]dashboard.Tab
}

var _ tgbotbase.IncomingMessageHandler = &covidHandler{}

// NewCovidHandler serves the dashboard commands. props may be nil, then
// per-chat locales and subscriptions are not available.
func NewCovidHandler(holder *dashboard.Holder, props tgbotbase.PropertyStorage, refresher Refresher, loc *covidstats.Locale) tgbotbase.IncomingMessageHandler {
	return &covidHandler{
		holder:    holder,
		props:     props,
		refresher: refresher,
		loc:       loc,
		tabs:      make(map[tgbotbase.ChatID]dashboard.Tab),
	}
}

func (h *covidHandler) Init(outMsgCh chan<- tgbotapi.Chattable, srvCh chan<- tgbotbase.ServiceMsg) tgbotbase.HandlerTrigger {
	h.OutMsgCh = outMsgCh
	return tgbotbase.NewHandlerTrigger(nil, []string{cmdCovid, cmdPie, cmdXlsx, cmdLocale, cmdRefresh, cmdSubscribe, cmdUnsubscribe})
}

func (h *covidHandler) Name() string {
	return "covid dashboard"
}

func (h *covidHandler) HandleOne(msg tgbotapi.Message) {
	ctx := context.TODO()
	chat := tgbotbase.ChatID(msg.Chat.ID)
	var user tgbotbase.UserID
	if msg.From != nil {
		user = tgbotbase.UserID(msg.From.ID)
	}
	loc := chatLocale(ctx, h.props, h.loc, user, chat)
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case cmdCovid:
		h.sendTab(chat, args, loc)
	case cmdPie:
		h.sendPie(chat, loc)
	case cmdXlsx:
		h.sendWorkbook(chat, loc)
	case cmdLocale:
		h.setLocale(ctx, chat, user, args)
	case cmdRefresh:
		h.refresh(chat)
	case cmdSubscribe, cmdUnsubscribe:
		h.subscribe(ctx, chat, msg.Command() == cmdSubscribe)
	}
}

func (h *covidHandler) reply(chat tgbotbase.ChatID, text string) {
	msg := tgbotapi.NewMessage(int64(chat), text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true
	h.OutMsgCh <- msg
}

func (h *covidHandler) tab(chat tgbotbase.ChatID, arg string) (dashboard.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if arg == "" {
		if tab, found := h.tabs[chat]; found {
			return tab, nil
		}
		return dashboard.TabGlobal, nil
	}
	tab, err := dashboard.ParseTab(strings.ToLower(arg))
	if err != nil {
		return "", err
	}
	h.tabs[chat] = tab
	return tab, nil
}

func (h *covidHandler) sendTab(chat tgbotbase.ChatID, arg string, loc *covidstats.Locale) {
	tab, err := h.tab(chat, arg)
	if err != nil {
		names := make([]string, 0, len(dashboard.Tabs))
		for _, t := range dashboard.Tabs {
			names = append(names, string(t))
		}
		h.reply(chat, escape(fmt.Sprintf("/%s [%s]", cmdCovid, strings.Join(names, "|"))))
		return
	}

	v := h.holder.View(tab, loc)
	if !v.Ready() {
		h.reply(chat, escape(loadingText(v, loc)))
		return
	}
	h.reply(chat, viewMessage(v, loc))

	img, err := report.ViewChart(v, loc)
	if err != nil {
		if !errors.Is(err, report.ErrNoData) {
			log.WithFields(log.Fields{"tab": tab, "err": err}).Error("Could not render chart")
		}
		return
	}
	h.OutMsgCh <- tgbotapi.NewPhotoUpload(int64(chat), tgbotapi.FileBytes{Name: string(tab) + ".png", Bytes: img})
}

func (h *covidHandler) sendPie(chat tgbotbase.ChatID, loc *covidstats.Locale) {
	v := h.holder.View(dashboard.TabGlobal, loc)
	img, err := report.ContinentsPieChart(v.Global, loc)
	if err != nil {
		h.reply(chat, escape(loadingText(v, loc)))
		return
	}
	h.OutMsgCh <- tgbotapi.NewPhotoUpload(int64(chat), tgbotapi.FileBytes{Name: "continents.png", Bytes: img})
}

func (h *covidHandler) sendWorkbook(chat tgbotbase.ChatID, loc *covidstats.Locale) {
	global := h.holder.View(dashboard.TabGlobal, loc)
	data, err := report.WorkbookBytes(global,
		h.holder.View(dashboard.TabHistory, loc),
		h.holder.View(dashboard.TabCountry, loc),
		loc)
	if err != nil {
		log.WithFields(log.Fields{"chat": chat, "err": err}).Error("Could not build workbook")
		h.reply(chat, escape(loadingText(global, loc)))
		return
	}
	h.OutMsgCh <- tgbotapi.NewDocumentUpload(int64(chat), tgbotapi.FileBytes{Name: "coviddash.xlsx", Bytes: data})
}

func (h *covidHandler) setLocale(ctx context.Context, chat tgbotbase.ChatID, user tgbotbase.UserID, arg string) {
	if h.props == nil {
		h.reply(chat, escape("Locale settings are not available"))
		return
	}
	loc, err := covidstats.NewLocale(arg)
	if err != nil {
		h.reply(chat, escape(fmt.Sprintf("/%s es|en|ru", cmdLocale)))
		return
	}
	if err := h.props.SetPropertyForChat(ctx, propLocale, chat, loc.String()); err != nil {
		log.WithFields(log.Fields{"chat": chat, "user": user, "err": err}).Error("Could not store locale")
		return
	}
	h.reply(chat, escape(loc.String()))
}

func (h *covidHandler) refresh(chat tgbotbase.ChatID) {
	err := h.refresher.Refresh()
	switch {
	case err == nil:
		h.reply(chat, escape("Refreshing..."))
	case errors.Is(err, dashboard.ErrBatchInFlight):
		h.reply(chat, escape("Refresh is already in progress"))
	default:
		log.WithFields(log.Fields{"chat": chat, "err": err}).Error("Could not start refresh")
	}
}

func (h *covidHandler) subscribe(ctx context.Context, chat tgbotbase.ChatID, on bool) {
	if h.props == nil {
		h.reply(chat, escape("Subscriptions are not available"))
		return
	}
	value := "0"
	if on {
		value = "1"
	}
	if err := h.props.SetPropertyForChat(ctx, propSubscribe, chat, value); err != nil {
		log.WithFields(log.Fields{"chat": chat, "err": err}).Error("Could not store subscription")
		return
	}
	h.reply(chat, escape("OK"))
}

func chatLocale(ctx context.Context, props tgbotbase.PropertyStorage, def *covidstats.Locale, user tgbotbase.UserID, chat tgbotbase.ChatID) *covidstats.Locale {
	if props == nil {
		return def
	}
	name, err := props.GetProperty(ctx, propLocale, user, chat)
	if err != nil {
		log.WithFields(log.Fields{"chat": chat, "err": err}).Error("Could not get locale property")
		return def
	}
	if name == "" {
		return def
	}
	loc, err := covidstats.NewLocale(name)
	if err != nil {
		return def
	}
	return loc
}

func loadingText(v dashboard.View, loc *covidstats.Locale) string {
	if v.Phase == dashboard.PhaseLoading || v.Phase == dashboard.PhaseIdle {
		return loc.T(covidstats.TextLoading)
	}
	return loc.T(covidstats.TextUnavailable)
}

func viewMessage(v dashboard.View, loc *covidstats.Locale) string {
	title := map[dashboard.Tab]string{
		dashboard.TabGlobal:  covidstats.TitleGlobal,
		dashboard.TabHistory: covidstats.TitleHistory,
		dashboard.TabCountry: covidstats.TitleCountry,
	}[v.Tab]
	return fmt.Sprintf("*%s* \\#covid19\n%s", escape(loc.T(title)), pre(report.Text(v, loc)))
}
