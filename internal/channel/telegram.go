// Package channel is the Telegram transport: the update loop, the search
// result UI (inline keyboards), content delivery, and catalog ingestion
// from index channels.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediabot/internal/catalog"
	"mediabot/internal/config"
	"mediabot/internal/delivery"
	"mediabot/internal/filters"
	"mediabot/internal/search"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

// Bot wires the Telegram API to the search executor, the catalog, and the
// delivery scheduler.
type Bot struct {
	api       *tgbotapi.BotAPI
	username  string
	parseMode string

	admins      []int64
	indexFrom   []int64
	searchChats []int64

	executor   *search.Executor
	store      *catalog.Store
	records    *catalog.RecordCache
	sched      *delivery.Scheduler
	filtersCat *filters.Catalog
	delivery   config.DeliveryConfig

	router map[string]callbackHandler
	logger *slog.Logger
}

type Config struct {
	Telegram config.TelegramConfig
	Delivery config.DeliveryConfig
	Executor *search.Executor
	Store    *catalog.Store
	Records  *catalog.RecordCache
	Filters  *filters.Catalog
	Logger   *slog.Logger
}

func New(cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	b := &Bot{
		api:         api,
		username:    api.Self.UserName,
		parseMode:   cfg.Telegram.ParseMode,
		admins:      cfg.Telegram.Admins,
		indexFrom:   cfg.Telegram.IndexFrom,
		searchChats: cfg.Telegram.SearchChats,
		executor:    cfg.Executor,
		store:       cfg.Store,
		records:     cfg.Records,
		filtersCat:  cfg.Filters,
		delivery:    cfg.Delivery,
		logger:      cfg.Logger.With("component", "telegram"),
	}
	b.router = b.buildRouter()
	b.logger.Info("telegram bot connected", "username", b.username, "id", api.Self.ID)
	return b, nil
}

// AttachScheduler hands the bot the delivery scheduler. Separate from New
// because the scheduler needs the bot as its Transport.
func (b *Bot) AttachScheduler(s *delivery.Scheduler) { b.sched = s }

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram channel stopping")
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.ChannelPost != nil:
		b.handleChannelPost(ctx, update.ChannelPost)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if b.hasMedia(msg) && b.isIndexSource(msg.Chat.ID) {
		b.ingest(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" || !b.isSearchChat(msg.Chat.ID) {
		return
	}
	b.replyWithSearch(ctx, msg, text, emptyState())
}

func (b *Bot) handleChannelPost(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !b.isIndexSource(msg.Chat.ID) {
		return
	}
	if b.hasMedia(msg) {
		b.ingest(ctx, msg)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.admins {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) isIndexSource(chatID int64) bool {
	for _, id := range b.indexFrom {
		if id == chatID {
			return true
		}
	}
	return false
}

// isSearchChat: empty list means search is served everywhere.
func (b *Bot) isSearchChat(chatID int64) bool {
	if len(b.searchChats) == 0 {
		return true
	}
	for _, id := range b.searchChats {
		if id == chatID {
			return true
		}
	}
	return false
}

// send delivers a text message with retry and rate-limit backoff.
func (b *Bot) send(chatID int64, msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	if msg.ParseMode == "" {
		msg.ParseMode = b.parseMode
	}
	var lastErr error
	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		sent, err := b.api.Send(msg)
		if err == nil {
			return sent, nil
		}
		lastErr = err
		errStr := err.Error()

		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			backoff := time.Duration(attempt+1) * 3 * time.Second
			b.logger.Warn("telegram rate limited, backing off", "retry_after", backoff, "attempt", attempt+1)
			time.Sleep(backoff)
			continue
		}
		// Parse-mode errors: retry once as plain text.
		if msg.ParseMode != "" && strings.Contains(errStr, "can't parse entities") {
			msg.ParseMode = ""
			continue
		}
		if attempt < telegramMaxSendRetries {
			time.Sleep(time.Duration(attempt+1) * time.Second)
			continue
		}
	}
	b.logger.Error("telegram send failed", "chat", chatID, "err", lastErr)
	return tgbotapi.Message{}, lastErr
}

// sendText splits text that exceeds the message size limit on line
// boundaries and sends each piece in order.
func (b *Bot) sendText(chatID int64, text string) {
	for _, chunk := range splitMessage(text, telegramMaxMsgLen) {
		_, _ = b.send(chatID, tgbotapi.NewMessage(chatID, chunk))
	}
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			// No line boundary in the window: back a byte cut up to a
			// rune boundary so no chunk carries invalid UTF-8.
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// DeleteMessage implements delivery.Transport.
func (b *Bot) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	_, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// SendNotice implements delivery.Transport.
func (b *Bot) SendNotice(_ context.Context, chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := b.send(chatID, msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}
