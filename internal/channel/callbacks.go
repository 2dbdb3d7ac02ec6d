package channel

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediabot/internal/domain"
	"mediabot/internal/filters"
	"mediabot/internal/token"
)

// Callback actions. Dispatch is an explicit map over this fixed
// enumeration; callback data is never pattern-matched.
const (
	actNav   = "nav"   // payload: compact token of the target page
	actGet   = "get"   // payload: record reference
	actMenu  = "mnu"   // payload: <lang|year|qual>:<compact token>
	actLang  = "lang"  // payload: <code>:<compact token>
	actYear  = "year"  // payload: <year>:<compact token>
	actQual  = "qual"  // payload: <tag>:<compact token>
	actClear = "clr"   // payload: compact token (ignored beyond existing)
	actClose = "close" // payload: empty
	actNoop  = "noop"  // payload: empty (page indicator)
)

const (
	menuLang = "lang"
	menuYear = "year"
	menuQual = "qual"
)

const stateLostText = "This message is too old; please repeat your search."

type callbackHandler func(ctx context.Context, cq *tgbotapi.CallbackQuery, payload string)

func (b *Bot) buildRouter() map[string]callbackHandler {
	return map[string]callbackHandler{
		actNav:   b.onNavigate,
		actGet:   b.onGet,
		actMenu:  b.onMenu,
		actLang:  b.onSetLanguage,
		actYear:  b.onSetYear,
		actQual:  b.onSetQuality,
		actClear: b.onClearFilters,
		actClose: b.onClose,
		actNoop:  func(context.Context, *tgbotapi.CallbackQuery, string) {},
	}
}

// callbackData joins an action and its payload. Stays well inside the
// transport's 64-byte callback limit for every action we emit.
func callbackData(action, payload string) string {
	if payload == "" {
		return action
	}
	return action + ":" + payload
}

// parseCallback splits callback data into its action and payload.
func parseCallback(data string) (action, payload string) {
	action, payload, _ = strings.Cut(data, ":")
	return action, payload
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	// Ack first so the client stops its spinner even if handling is slow.
	_, _ = b.api.Request(tgbotapi.NewCallback(cq.ID, ""))

	action, payload := parseCallback(cq.Data)
	handler, ok := b.router[action]
	if !ok {
		b.logger.Warn("unknown callback action", "action", action)
		b.answer(cq, stateLostText)
		return
	}
	handler(ctx, cq, payload)
}

// answer shows a small alert popup on the user's client.
func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	cb := tgbotapi.NewCallbackWithAlert(cq.ID, text)
	_, _ = b.api.Request(cb)
}

// queryFor recovers the out-of-band query text: the results message is
// always a reply to the message that carried the query.
func (b *Bot) queryFor(cq *tgbotapi.CallbackQuery) (string, bool) {
	if cq.Message.ReplyToMessage == nil {
		return "", false
	}
	q := strings.TrimSpace(cq.Message.ReplyToMessage.Text)
	return q, q != ""
}

func (b *Bot) onNavigate(ctx context.Context, cq *tgbotapi.CallbackQuery, payload string) {
	state, err := token.DecodeCompact(payload)
	if err != nil {
		b.answer(cq, stateLostText)
		return
	}
	query, ok := b.queryFor(cq)
	if !ok {
		b.answer(cq, stateLostText)
		return
	}
	b.editSearch(ctx, cq.Message, query, state)
}

func (b *Bot) onMenu(ctx context.Context, cq *tgbotapi.CallbackQuery, payload string) {
	kind, tok, found := strings.Cut(payload, ":")
	if !found {
		b.answer(cq, stateLostText)
		return
	}
	if _, err := token.DecodeCompact(tok); err != nil {
		b.answer(cq, stateLostText)
		return
	}
	markup := b.pickerKeyboard(kind, tok)
	edit := tgbotapi.NewEditMessageReplyMarkup(cq.Message.Chat.ID, cq.Message.MessageID, markup)
	_, _ = b.api.Send(edit)
}

func (b *Bot) onSetLanguage(ctx context.Context, cq *tgbotapi.CallbackQuery, payload string) {
	b.applyFilter(ctx, cq, payload, func(f *domain.SearchFilters, v string) bool {
		if _, ok := b.filtersCat.Language(v); !ok {
			return false
		}
		f.Language = domain.Filter(strings.ToUpper(v))
		return true
	})
}

func (b *Bot) onSetYear(ctx context.Context, cq *tgbotapi.CallbackQuery, payload string) {
	b.applyFilter(ctx, cq, payload, func(f *domain.SearchFilters, v string) bool {
		if !filters.IsYear(v) {
			return false
		}
		f.Year = domain.Filter(v)
		return true
	})
}

func (b *Bot) onSetQuality(ctx context.Context, cq *tgbotapi.CallbackQuery, payload string) {
	b.applyFilter(ctx, cq, payload, func(f *domain.SearchFilters, v string) bool {
		if !b.filtersCat.IsQuality(v) {
			return false
		}
		f.Quality = domain.Filter(v)
		return true
	})
}

// applyFilter decodes <value>:<token>, lets set mutate the filters, and
// re-renders from page zero: changing a filter always restarts pagination.
func (b *Bot) applyFilter(ctx context.Context, cq *tgbotapi.CallbackQuery, payload string, set func(*domain.SearchFilters, string) bool) {
	value, tok, found := strings.Cut(payload, ":")
	if !found {
		b.answer(cq, stateLostText)
		return
	}
	state, err := token.DecodeCompact(tok)
	if err != nil {
		b.answer(cq, stateLostText)
		return
	}
	if !set(&state.Filters, value) {
		b.answer(cq, stateLostText)
		return
	}
	state.Page = 0

	query, ok := b.queryFor(cq)
	if !ok {
		b.answer(cq, stateLostText)
		return
	}
	b.editSearch(ctx, cq.Message, query, state)
}

func (b *Bot) onClearFilters(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) {
	query, ok := b.queryFor(cq)
	if !ok {
		b.answer(cq, stateLostText)
		return
	}
	b.editSearch(ctx, cq.Message, query, emptyState())
}

func (b *Bot) onClose(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) {
	if err := b.DeleteMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID); err != nil {
		b.logger.Warn("close failed", "chat", cq.Message.Chat.ID, "err", err)
	}
}

func (b *Bot) onGet(ctx context.Context, cq *tgbotapi.CallbackQuery, ref string) {
	if ref == "" {
		b.answer(cq, stateLostText)
		return
	}
	if err := b.deliverRecord(ctx, cq.Message.Chat.ID, ref); err != nil {
		if errors.Is(err, errRecordGone) {
			b.answer(cq, "That file is no longer available.")
			return
		}
		b.answer(cq, "Delivery failed, please try again.")
	}
}
