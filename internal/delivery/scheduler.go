// Package delivery tracks delivered-message handles and purges them after
// a fixed delay. Delivered content must not sit in a conversation forever;
// cleanup is best-effort, never a guaranteed invariant.
package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"mediabot/internal/metrics"
)

// Transport is the slice of the chat layer the scheduler needs.
type Transport interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendNotice(ctx context.Context, chatID int64, text string) (messageID int, err error)
}

// Ticket records which delivered message handles must be purged together.
// Consumed exactly once when its delay elapses.
type Ticket struct {
	ID         string
	ChatID     int64
	MessageIDs []int
	CreatedAt  time.Time
	Delay      time.Duration
}

// CancelFunc disarms a scheduled ticket. Returns true if the ticket had
// not fired yet. Cancellation is unused by the bot today but keeps the
// scheduler testable and the API honest about ticket lifetime.
type CancelFunc func() bool

// Scheduler arms one independent timer per ticket. Overlapping tickets for
// the same chat do not interact or coalesce.
type Scheduler struct {
	clock       clockwork.Clock
	transport   Transport
	noticeText  string
	noticeDelay time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]clockwork.Timer
}

type Config struct {
	NoticeText  string        // transient "deleted" notice; empty disables it
	NoticeDelay time.Duration // how long the notice itself survives
}

func NewScheduler(clock clockwork.Clock, transport Transport, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.NoticeDelay <= 0 {
		cfg.NoticeDelay = 10 * time.Second
	}
	return &Scheduler{
		clock:       clock,
		transport:   transport,
		noticeText:  cfg.NoticeText,
		noticeDelay: cfg.NoticeDelay,
		logger:      logger.With("component", "delivery"),
		pending:     make(map[string]clockwork.Timer),
	}
}

// Schedule arms the ticket's timer and returns its cancellation handle.
// A ticket with no handles is accepted and simply produces no deletions.
func (s *Scheduler) Schedule(t Ticket) CancelFunc {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock.Now()
	}

	s.mu.Lock()
	timer := s.clock.AfterFunc(t.Delay, func() {
		s.fire(t)
	})
	s.pending[t.ID] = timer
	s.mu.Unlock()

	s.logger.Info("delivery ticket armed",
		"ticket", t.ID,
		"chat", t.ChatID,
		"messages", len(t.MessageIDs),
		"delay", t.Delay,
	)

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		tm, ok := s.pending[t.ID]
		if !ok {
			return false
		}
		delete(s.pending, t.ID)
		return tm.Stop()
	}
}

// Pending returns how many tickets are armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// fire deletes every handle in the ticket, then posts the transient
// notice and schedules its own removal. Each handle is attempted once;
// failures (message already gone, permission revoked) are logged and
// swallowed.
func (s *Scheduler) fire(t Ticket) {
	s.mu.Lock()
	delete(s.pending, t.ID)
	s.mu.Unlock()

	ctx := context.Background()
	deleted := 0
	for _, msgID := range t.MessageIDs {
		if err := s.transport.DeleteMessage(ctx, t.ChatID, msgID); err != nil {
			s.logger.Warn("purge failed", "ticket", t.ID, "chat", t.ChatID, "message", msgID, "err", err)
			continue
		}
		deleted++
	}
	metrics.PurgedMessagesTotal.Add(float64(deleted))
	s.logger.Info("delivery ticket purged", "ticket", t.ID, "chat", t.ChatID, "deleted", deleted)

	if s.noticeText == "" || len(t.MessageIDs) == 0 {
		return
	}
	noticeID, err := s.transport.SendNotice(ctx, t.ChatID, s.noticeText)
	if err != nil {
		s.logger.Warn("purge notice failed", "ticket", t.ID, "chat", t.ChatID, "err", err)
		return
	}
	// The notice expires on its own short timer, independent of the
	// original ticket and without a follow-up notice of its own.
	s.clock.AfterFunc(s.noticeDelay, func() {
		if err := s.transport.DeleteMessage(context.Background(), t.ChatID, noticeID); err != nil {
			s.logger.Warn("notice purge failed", "chat", t.ChatID, "message", noticeID, "err", err)
		}
	})
}
