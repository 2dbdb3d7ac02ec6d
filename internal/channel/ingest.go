package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mediabot/internal/catalog"
	"mediabot/internal/domain"
)

func (b *Bot) hasMedia(msg *tgbotapi.Message) bool {
	return msg.Document != nil || msg.Video != nil || msg.Audio != nil
}

// ingest records one media message from an index source into the catalog.
// The platform's FileUniqueID becomes the record reference: it is short,
// stable across chats, and safe inside button payloads.
func (b *Bot) ingest(ctx context.Context, msg *tgbotapi.Message) {
	rec, ok := recordFromMessage(msg)
	if !ok {
		return
	}

	err := b.store.Insert(ctx, rec)
	if errors.Is(err, catalog.ErrDuplicate) {
		b.logger.Debug("already indexed", "ref", rec.Ref, "name", rec.Name)
		return
	}
	if err != nil {
		b.logger.Error("ingest failed", "ref", rec.Ref, "name", rec.Name, "err", err)
		return
	}
	b.logger.Info("indexed",
		"ref", rec.Ref,
		"name", rec.Name,
		"kind", rec.Kind,
		"size", rec.Size,
		"chat", msg.Chat.ID,
	)
}

func recordFromMessage(msg *tgbotapi.Message) (domain.ContentRecord, bool) {
	rec := domain.ContentRecord{
		Caption:   msg.Caption,
		CreatedAt: time.Now().UTC(),
	}
	switch {
	case msg.Document != nil:
		d := msg.Document
		rec.Ref = d.FileUniqueID
		rec.FileID = d.FileID
		rec.Name = d.FileName
		rec.Size = int64(d.FileSize)
		rec.Kind = domain.MediaDocument
		rec.MimeType = d.MimeType
	case msg.Video != nil:
		v := msg.Video
		rec.Ref = v.FileUniqueID
		rec.FileID = v.FileID
		rec.Name = v.FileName
		rec.Size = int64(v.FileSize)
		rec.Kind = domain.MediaVideo
		rec.MimeType = v.MimeType
	case msg.Audio != nil:
		a := msg.Audio
		rec.Ref = a.FileUniqueID
		rec.FileID = a.FileID
		rec.Name = a.FileName
		rec.Size = int64(a.FileSize)
		rec.Kind = domain.MediaAudio
		rec.MimeType = a.MimeType
	default:
		return domain.ContentRecord{}, false
	}

	// Nameless uploads are still retrievable: fall back to the caption so
	// search has something to match against.
	if rec.Name == "" {
		if rec.Caption != "" {
			rec.Name = rec.Caption
		} else {
			rec.Name = fmt.Sprintf("%s %s", rec.Kind, rec.Ref)
		}
	}
	return rec, rec.Ref != "" && rec.FileID != ""
}
