package tgbotbase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

type Bot struct {
	dealers []MessageDealer
	cfg     Config

	bot         *tgbotapi.BotAPI
	botChannels struct {
		in_msg_chan  tgbotapi.UpdatesChannel
		out_msg_chan chan tgbotapi.Chattable
		service_chan chan ServiceMsg
	}
}

// NewBot connects to Telegram unless SkipConnect is set.
// A bot which skipped connecting still runs its dealers but never receives updates.
func NewBot(cfg Config) (*Bot, error) {
	b := &Bot{dealers: make([]MessageDealer, 0),
		cfg: cfg}

	b.botChannels.out_msg_chan = make(chan tgbotapi.Chattable, 0)
	b.botChannels.service_chan = make(chan ServiceMsg, 0)

	if cfg.TGBot.SkipConnect {
		log.Info("Skipping connection to Telegram")
		return b, nil
	}

	botToken := cfg.TGBot.Token
	if cfg.Proxy_SOCKS5.Server != "" {
		log.WithFields(log.Fields{"proxy": cfg.Proxy_SOCKS5.Server, "user": cfg.Proxy_SOCKS5.User}).Info("Connecting to Telegram via proxy")
		auth := proxy.Auth{User: cfg.Proxy_SOCKS5.User,
			Password: cfg.Proxy_SOCKS5.Pass}
		dialer, err := proxy.SOCKS5("tcp", cfg.Proxy_SOCKS5.Server, &auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("could not get proxy dialer: %w", err)
		}
		httpTransport := &http.Transport{}
		httpTransport.Dial = dialer.Dial
		httpClient := &http.Client{Transport: httpTransport}
		b.bot, err = tgbotapi.NewBotAPIWithClient(botToken, httpClient)
		if err != nil {
			return nil, fmt.Errorf("could not connect via proxy: %w", err)
		}
	} else {
		log.Info("No proxy is set, connecting to Telegram directly")
		var err error
		b.bot, err = tgbotapi.NewBotAPI(botToken)
		if err != nil {
			return nil, fmt.Errorf("could not connect directly: %w", err)
		}
	}
	log.WithField("account", b.bot.Self.UserName).Info("Authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.bot.GetUpdatesChan(u)
	if err != nil {
		return nil, fmt.Errorf("could not get updates channel: %w", err)
	}
	b.botChannels.in_msg_chan = updates

	return b, nil
}

func (b *Bot) AddHandler(d MessageDealer) {
	log.WithField("handler", d.name()).Debug("Preparing handler")
	d.init(b.botChannels.out_msg_chan, b.botChannels.service_chan)
	b.dealers = append(b.dealers, d)
}

// Start runs dealers and serves updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	log.Info("Starting bot")
	for _, d := range b.dealers {
		log.WithField("handler", d.name()).Debug("Starting handler")
		d.run()
	}

	go b.serveReplies()
	isRunning := true
	for isRunning {
		select {
		case <-ctx.Done():
			isRunning = false
		case update := <-b.botChannels.in_msg_chan:
			if b.cfg.TGBot.Verbose {
				dumpUpdate(update)
			}
			if update.Message == nil {
				log.Debug("Message: empty. Skipping")
				continue
			}

			for _, d := range b.dealers {
				d.accept(*update.Message)
			}
		case srvMsg := <-b.botChannels.service_chan:
			log.WithField("msg", fmt.Sprintf("%+v", srvMsg)).Debug("Received service message")
			if srvMsg.StopBot {
				isRunning = false
			}
		}
	}
	if b.bot != nil {
		b.bot.StopReceivingUpdates()
	}
	time.Sleep(1 * time.Second)

	log.Info("Main cycle has been aborted")
}

func (b *Bot) serveReplies() {
	log.Debug("Started serving replies")
	for msg := range b.botChannels.out_msg_chan {
		if b.bot == nil {
			log.WithField("msg", fmt.Sprintf("%+v", msg)).Debug("Not connected, dropping reply")
			continue
		}
		if _, err := b.bot.Send(msg); err != nil {
			log.WithFields(log.Fields{"err": err}).Error("Could not send reply")
		}
	}
	log.Debug("Finished serving replies")
}

func dumpUpdate(update tgbotapi.Update) {
	if update.Message == nil {
		log.WithField("update", update.UpdateID).Debug("Update without message")
		return
	}
	log.WithFields(log.Fields{
		"update": update.UpdateID,
		"chat":   update.Message.Chat.ID,
		"from":   update.Message.From.UserName,
		"text":   update.Message.Text,
	}).Debug("Received update")
}
