package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookshelf/internal/notify"
)

type NotificationWorker struct {
	queue       notify.Queue
	sender      notify.Sender
	sendTimeout time.Duration
	backoff     time.Duration
}

func NewNotificationWorker(queue notify.Queue, sender notify.Sender) *NotificationWorker {
	return &NotificationWorker{
		queue:       queue,
		sender:      sender,
		sendTimeout: 30 * time.Second,
		backoff:     5 * time.Second,
	}
}

// Start drains the queue until ctx is cancelled. A failed send is logged
// and dropped; it is never retried.
func (w *NotificationWorker) Start(ctx context.Context) {
	slog.Info("starting notification worker")

	for {
		msg, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("notification worker stopped")
				return
			}
			slog.Error("failed to dequeue notification", "error", err)
			select {
			case <-ctx.Done():
				slog.Info("notification worker stopped")
				return
			case <-time.After(w.backoff):
			}
			continue
		}

		w.deliver(ctx, msg)
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, msg notify.Message) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.sendTimeout)
	defer cancel()

	if err := w.sender.Send(sendCtx, msg); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("notification send timed out", "to", msg.To, "subject", msg.Subject)
			return
		}
		slog.Error("failed to send notification", "to", msg.To, "subject", msg.Subject, "error", err)
		return
	}
	slog.Info("notification sent", "to", msg.To, "subject", msg.Subject)
}
