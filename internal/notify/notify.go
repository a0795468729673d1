// Package notify renders and delivers the emails sent on account and
// order events. Delivery is asynchronous: callers enqueue, a worker sends.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

var ErrQueueFull = errors.New("notification queue full")

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
	// Dequeue blocks until a message is available or ctx is done.
	Dequeue(ctx context.Context) (Message, error)
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher renders a template and hands the result to a queue. It never
// reports failure to the caller; problems are logged.
type Dispatcher struct {
	queue     Queue
	templates *Templates
}

func NewDispatcher(queue Queue, templates *Templates) *Dispatcher {
	return &Dispatcher{queue: queue, templates: templates}
}

func (d *Dispatcher) Notify(ctx context.Context, to string, kind Kind, data map[string]any) {
	msg, err := d.templates.Render(kind, to, data)
	if err != nil {
		slog.Error("failed to render notification", "kind", kind, "to", to, "error", err)
		return
	}
	// The request may end before the queue write does.
	if err := d.queue.Enqueue(context.WithoutCancel(ctx), msg); err != nil {
		slog.Error("failed to enqueue notification", "kind", kind, "to", to, "error", err)
		return
	}
	slog.Debug("notification queued", "kind", kind, "to", to)
}

// LogSender writes messages to the log instead of delivering them. It is
// used when no SMTP server is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	slog.Info("email (not delivered)", "to", msg.To, "subject", msg.Subject)
	return nil
}
