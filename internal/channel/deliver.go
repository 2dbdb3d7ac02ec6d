package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediabot/internal/delivery"
	"mediabot/internal/domain"
	"mediabot/internal/metrics"
	"mediabot/internal/token"
)

var errRecordGone = errors.New("record not found")

// deliverRecord re-sends a cataloged item into chatID by its stored file
// key, then schedules the sent message for expiry.
func (b *Bot) deliverRecord(ctx context.Context, chatID int64, ref string) error {
	rec, err := b.records.Resolve(ctx, ref)
	if err != nil {
		metrics.DeliveryFailuresTotal.Inc()
		return fmt.Errorf("resolve record %s: %w", ref, err)
	}
	if rec == nil {
		return errRecordGone
	}

	sent, err := b.sendMedia(chatID, rec)
	if err != nil {
		metrics.DeliveryFailuresTotal.Inc()
		return fmt.Errorf("send record %s: %w", ref, err)
	}
	metrics.DeliveriesTotal.Inc()

	b.expireLater(chatID, []int{sent.MessageID}, b.delivery.ContentTTL())
	b.sendPromo(chatID)
	return nil
}

func (b *Bot) sendMedia(chatID int64, rec *domain.ContentRecord) (tgbotapi.Message, error) {
	file := tgbotapi.FileID(rec.FileID)
	caption := rec.Caption
	if caption == "" {
		caption = rec.Name
	}

	var msg tgbotapi.Chattable
	switch rec.Kind {
	case domain.MediaVideo:
		v := tgbotapi.NewVideo(chatID, file)
		v.Caption = caption
		msg = v
	case domain.MediaAudio:
		a := tgbotapi.NewAudio(chatID, file)
		a.Caption = caption
		msg = a
	default:
		d := tgbotapi.NewDocument(chatID, file)
		d.Caption = caption
		msg = d
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		return tgbotapi.Message{}, err
	}
	return sent, nil
}

// sendPromo posts the short-lived promotional note that accompanies every
// delivery. Failure to send it never fails the delivery.
func (b *Bot) sendPromo(chatID int64) {
	text := b.delivery.PromoText
	if text == "" {
		return
	}
	sent, err := b.send(chatID, tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return
	}
	b.expireLater(chatID, []int{sent.MessageID}, b.delivery.PromoTTL())
}

// deliverBatch copies a contiguous message-ID span from the source channel
// into chatID. Individual copy failures (deleted or inaccessible messages)
// are skipped; the rest of the span still goes out.
func (b *Bot) deliverBatch(ctx context.Context, chatID int64, r token.BatchRange) {
	var sentIDs []int
	for id := r.Start; id <= r.End; id++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		copyMsg := tgbotapi.NewCopyMessage(chatID, r.Source, int(id))
		sent, err := b.api.CopyMessage(copyMsg)
		if err != nil {
			metrics.DeliveryFailuresTotal.Inc()
			b.logger.Debug("batch copy skipped", "source", r.Source, "message_id", id, "err", err)
			continue
		}
		metrics.DeliveriesTotal.Inc()
		sentIDs = append(sentIDs, sent.MessageID)
	}
	if len(sentIDs) == 0 {
		b.sendText(chatID, "None of the linked items are available anymore.")
		return
	}
	b.expireLater(chatID, sentIDs, b.delivery.ContentTTL())
	b.sendPromo(chatID)
}

func (b *Bot) expireLater(chatID int64, messageIDs []int, ttl time.Duration) {
	if b.sched == nil || ttl <= 0 {
		return
	}
	b.sched.Schedule(delivery.Ticket{
		ChatID:     chatID,
		MessageIDs: messageIDs,
		Delay:      ttl,
	})
}
