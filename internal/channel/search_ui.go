package channel

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediabot/internal/domain"
	"mediabot/internal/token"
)

// emptyState is the page-0, no-filters search state.
func emptyState() domain.SearchState { return domain.SearchState{} }

// replyWithSearch runs a search and posts the result message as a reply to
// the message carrying the query text. The reply linkage is load-bearing:
// callbacks recover the query from the replied-to message, which is what
// keeps the buttons stateless.
func (b *Bot) replyWithSearch(ctx context.Context, queryMsg *tgbotapi.Message, query string, state domain.SearchState) {
	res := b.executor.Search(ctx, query, state.Filters, state.Page)

	text, keyboard := b.renderResults(query, state, res)
	msg := tgbotapi.NewMessage(queryMsg.Chat.ID, text)
	msg.ReplyToMessageID = queryMsg.MessageID
	msg.ReplyMarkup = keyboard
	_, _ = b.send(queryMsg.Chat.ID, msg)
}

// editSearch re-runs a search and edits the existing results message in
// place. Used by every pagination and filter callback.
func (b *Bot) editSearch(ctx context.Context, resultsMsg *tgbotapi.Message, query string, state domain.SearchState) {
	res := b.executor.Search(ctx, query, state.Filters, state.Page)
	text, keyboard := b.renderResults(query, state, res)

	edit := tgbotapi.NewEditMessageTextAndMarkup(resultsMsg.Chat.ID, resultsMsg.MessageID, text, keyboard)
	edit.ParseMode = b.parseMode
	if _, err := b.api.Send(edit); err != nil {
		// "message is not modified" is routine when a user re-taps the
		// same button; anything else is worth a log line.
		if !strings.Contains(err.Error(), "not modified") {
			b.logger.Warn("edit results failed", "chat", resultsMsg.Chat.ID, "err", err)
		}
	}
}

func (b *Bot) renderResults(query string, state domain.SearchState, res domain.SearchResult) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	switch {
	case len(res.Records) == 0:
		fmt.Fprintf(&sb, "No results for <b>%s</b>.", html.EscapeString(query))
		if !state.Filters.Empty() {
			sb.WriteString("\nTry clearing the filters.")
		}
	case res.IsFallback:
		fmt.Fprintf(&sb, "No exact match for <b>%s</b>; showing the closest titles:", html.EscapeString(query))
	default:
		fmt.Fprintf(&sb, "Results for <b>%s</b>:", html.EscapeString(query))
	}
	if desc := filterSummary(state.Filters); desc != "" {
		fmt.Fprintf(&sb, "\nFilters: %s", desc)
	}
	return sb.String(), b.resultsKeyboard(query, state, res)
}

// resultsKeyboard builds the item buttons, the filter row, and the
// navigation row for one result page.
func (b *Bot) resultsKeyboard(query string, state domain.SearchState, res domain.SearchResult) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, rec := range res.Records {
		label := fmt.Sprintf("%s  [%s]", rec.Name, sizeString(rec.Size))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncateLabel(label), callbackData(actGet, rec.Ref)),
		))
	}

	tok := token.EncodeCompact(state)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Language", callbackData(actMenu, menuLang+":"+tok)),
		tgbotapi.NewInlineKeyboardButtonData("Year", callbackData(actMenu, menuYear+":"+tok)),
		tgbotapi.NewInlineKeyboardButtonData("Quality", callbackData(actMenu, menuQual+":"+tok)),
	))
	if !state.Filters.Empty() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖ Clear filters", callbackData(actClear, tok)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if res.HasPrev {
		prev := state
		prev.Page--
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅ Prev", callbackData(actNav, token.EncodeCompact(prev))))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("· %d ·", state.Page+1), callbackData(actNoop, "")))
	if res.HasNext {
		next := state
		next.Page++
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ➡", callbackData(actNav, token.EncodeCompact(next))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(nav...))

	last := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Close", callbackData(actClose, "")),
	}
	if query != "" {
		last = append(last, tgbotapi.NewInlineKeyboardButtonURL("Share", b.shareLink(query, state)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(last...))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// pickerKeyboard renders one filter picker (language, year, or quality).
// Every choice button carries the current compact token so the selection
// handler can rebuild the full state without any server-side session.
func (b *Bot) pickerKeyboard(kind string, tok string) tgbotapi.InlineKeyboardMarkup {
	var choices [][2]string // label, callback data
	switch kind {
	case menuLang:
		for _, l := range b.filtersCat.Languages {
			choices = append(choices, [2]string{l.Name, callbackData(actLang, l.Code+":"+tok)})
		}
		choices = append(choices, [2]string{"Multi Audio", callbackData(actLang, domain.LangMulti+":"+tok)})
	case menuYear:
		year := time.Now().Year()
		for y := year; y > year-8; y-- {
			s := fmt.Sprintf("%d", y)
			choices = append(choices, [2]string{s, callbackData(actYear, s+":"+tok)})
		}
	case menuQual:
		for _, q := range b.filtersCat.Qualities {
			choices = append(choices, [2]string{q, callbackData(actQual, q+":"+tok)})
		}
	}

	const perRow = 3
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(choices); i += perRow {
		end := i + perRow
		if end > len(choices) {
			end = len(choices)
		}
		var row []tgbotapi.InlineKeyboardButton
		for _, c := range choices[i:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(c[0], c[1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅ Back", callbackData(actNav, tok)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// shareLink mints the stateless deep link reproducing this exact search.
func (b *Bot) shareLink(query string, state domain.SearchState) string {
	payload := token.EncodeSearchLink(token.SearchLink{Query: query, State: state})
	return fmt.Sprintf("https://t.me/%s?start=%s", b.username, payload)
}

func filterSummary(f domain.SearchFilters) string {
	var parts []string
	if f.Language.Set {
		parts = append(parts, f.Language.Value)
	}
	if f.Year.Set {
		parts = append(parts, f.Year.Value)
	}
	if f.Quality.Set {
		parts = append(parts, f.Quality.Value)
	}
	return strings.Join(parts, " · ")
}

// truncateLabel keeps button labels inside Telegram's limit.
func truncateLabel(s string) string {
	const maxLabel = 60
	r := []rune(s)
	if len(r) <= maxLabel {
		return s
	}
	return string(r[:maxLabel-1]) + "…"
}

func sizeString(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/float64(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
