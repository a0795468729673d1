package worker

import (
	"context"
	"log/slog"
	"time"
)

type OverdueReminder interface {
	RemindOverdue(ctx context.Context, from, to time.Time, batchSize int) (int, error)
}

// OverdueWorker periodically reminds borrowers whose loan deadline
// passed since the previous tick. Deadlines that pass while the process
// is down are not reminded.
type OverdueWorker struct {
	reminder  OverdueReminder
	interval  time.Duration
	batchSize int
	now       func() time.Time
	last      time.Time
}

func NewOverdueWorker(reminder OverdueReminder, interval time.Duration) *OverdueWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueWorker{
		reminder:  reminder,
		interval:  interval,
		batchSize: 100,
		now:       time.Now,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	slog.Info("starting overdue worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.last = w.now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("overdue worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *OverdueWorker) tick(ctx context.Context) {
	now := w.now()
	sent, err := w.reminder.RemindOverdue(ctx, w.last, now, w.batchSize)
	if err != nil {
		slog.Error("overdue batch failed", "from", w.last, "to", now, "error", err)
		return
	}
	w.last = now
	if sent > 0 {
		slog.Info("overdue reminders queued", "count", sent)
	}
}
