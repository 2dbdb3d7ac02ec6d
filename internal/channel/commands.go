package channel

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"mediabot/internal/domain"
	"mediabot/internal/token"
)

const helpText = `<b>What I do</b>
Send me a title and I will search the catalog.
Use the buttons under the results to page through and narrow by language, year, or quality.

<b>Commands</b>
/start - greeting, or open a shared search / batch link
/trending - most searched titles
/help - this message`

const adminHelpText = `
<b>Admin</b>
/link &lt;source&gt; &lt;start&gt; &lt;end&gt; - mint a shareable batch link
/del &lt;ref&gt; - remove a record from the catalog
/stats - catalog and delivery counters`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, msg)
	case "help":
		text := helpText
		if b.isAdmin(msg.From.ID) {
			text += adminHelpText
		}
		b.sendText(msg.Chat.ID, text)
	case "trending":
		b.cmdTrending(ctx, msg)
	case "link":
		b.cmdLink(msg)
	case "del":
		b.cmdDelete(ctx, msg)
	case "stats":
		b.cmdStats(ctx, msg)
	default:
		// Unknown commands are ignored so the bot can coexist with other
		// bots in a group.
	}
}

// cmdStart greets, or resumes a deep link. The payload's first character
// tells the two link kinds apart; anything undecodable degrades to the
// plain greeting.
func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	payload := strings.TrimSpace(msg.CommandArguments())
	if payload == "" {
		b.sendText(msg.Chat.ID, fmt.Sprintf("Hi %s! Send me a title to search.", html.EscapeString(msg.From.FirstName)))
		return
	}

	if link, err := token.DecodeSearchLink(payload); err == nil {
		b.openSharedSearch(ctx, msg, link)
		return
	}
	if r, err := token.DecodeBatchRange(payload); err == nil {
		b.deliverBatch(ctx, msg.Chat.ID, r)
		return
	}

	b.logger.Debug("undecodable start payload", "chat", msg.Chat.ID)
	b.sendText(msg.Chat.ID, "That link has expired or is malformed. Send me a title to search instead.")
}

// openSharedSearch replays a shared search in the opener's chat. The query
// is first echoed as its own message so the results can reply to it, the
// same linkage a typed search produces.
func (b *Bot) openSharedSearch(ctx context.Context, msg *tgbotapi.Message, link token.SearchLink) {
	echo, err := b.send(msg.Chat.ID, tgbotapi.NewMessage(msg.Chat.ID, link.Query))
	if err != nil {
		return
	}
	b.replyWithSearch(ctx, &echo, link.Query, link.State)
}

func (b *Bot) cmdTrending(ctx context.Context, msg *tgbotapi.Message) {
	entries, err := b.store.TopTrending(ctx, 10)
	if err != nil {
		b.logger.Error("trending query failed", "err", err)
		b.sendText(msg.Chat.ID, "Trending is unavailable right now.")
		return
	}
	if len(entries) == 0 {
		b.sendText(msg.Chat.ID, "No trending searches yet.")
		return
	}
	var sb strings.Builder
	sb.WriteString("<b>Trending searches</b>\n")
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d. %s  (%d)\n", i+1, html.EscapeString(e.Query), e.Count)
	}
	b.sendText(msg.Chat.ID, sb.String())
}

// cmdLink mints a shareable batch deep link for a message span in a
// source channel. Admin only.
func (b *Bot) cmdLink(msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 3 {
		b.sendText(msg.Chat.ID, "Usage: /link <source> <start> <end>")
		return
	}
	source, err1 := strconv.ParseInt(args[0], 10, 64)
	start, err2 := strconv.ParseInt(args[1], 10, 64)
	end, err3 := strconv.ParseInt(args[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		b.sendText(msg.Chat.ID, "Usage: /link <source> <start> <end> (all numeric)")
		return
	}

	payload, err := token.EncodeBatchRange(token.BatchRange{Source: source, Start: start, End: end})
	if err != nil {
		if errors.Is(err, token.ErrRangeTooLarge) {
			b.sendText(msg.Chat.ID, fmt.Sprintf("Range too large: at most %d messages per link.", token.MaxBatchSpan))
			return
		}
		b.sendText(msg.Chat.ID, fmt.Sprintf("Cannot build link: %v", err))
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("https://t.me/%s?start=%s", b.username, payload))
}

func (b *Bot) cmdDelete(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" && msg.ReplyToMessage != nil {
		// Replying /del to an indexed media message targets that record.
		if rec, ok := recordFromMessage(msg.ReplyToMessage); ok {
			ref = rec.Ref
		}
	}
	if ref == "" {
		b.sendText(msg.Chat.ID, "Usage: /del <ref>, or reply /del to an indexed file.")
		return
	}
	err := b.store.DeleteOneByRef(ctx, ref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		b.sendText(msg.Chat.ID, "No record with that reference.")
		return
	}
	if err != nil {
		b.logger.Error("delete failed", "ref", ref, "err", err)
		b.sendText(msg.Chat.ID, "Delete failed.")
		return
	}
	b.records.Invalidate(ref)
	b.sendText(msg.Chat.ID, fmt.Sprintf("Removed %s.", html.EscapeString(ref)))
}

func (b *Bot) cmdStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	total, err := b.store.Count(ctx, domain.Predicate{})
	if err != nil {
		b.logger.Error("stats query failed", "err", err)
		b.sendText(msg.Chat.ID, "Stats are unavailable right now.")
		return
	}
	pending := 0
	if b.sched != nil {
		pending = b.sched.Pending()
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf(
		"<b>Catalog</b>\nIndexed records: %d\nPending expiry tickets: %d", total, pending))
}
