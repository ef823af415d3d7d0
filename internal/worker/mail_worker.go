package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/mailer"
)

const sendTimeout = 10 * time.Second

// MailWorker delivers queued emails in the background. Delivery failures are
// logged and never reach the request that queued the message.
type MailWorker struct {
	sender mailer.Sender
	queue  chan mailer.Message
}

// NewMailWorker constructs a MailWorker with a bounded queue.
func NewMailWorker(sender mailer.Sender, queueSize int) *MailWorker {
	return &MailWorker{
		sender: sender,
		queue:  make(chan mailer.Message, queueSize),
	}
}

// Enqueue hands msg to the worker without blocking. It returns false and
// drops the message when the queue is full.
func (w *MailWorker) Enqueue(msg mailer.Message) bool {
	select {
	case w.queue <- msg:
		return true
	default:
		log.Error().Str("to", msg.To).Str("subject", msg.Subject).Msg("Mail queue full, dropping message")
		return false
	}
}

// Start delivers messages until ctx is canceled.
func (w *MailWorker) Start(ctx context.Context) {
	log.Info().Int("queue_size", cap(w.queue)).Msg("Starting mail worker")

	for {
		select {
		case msg := <-w.queue:
			w.deliver(ctx, msg)
		case <-ctx.Done():
			if pending := len(w.queue); pending > 0 {
				log.Warn().Int("pending", pending).Msg("Mail worker stopped with undelivered messages")
			}
			log.Info().Msg("Mail worker stopped")
			return
		}
	}
}

func (w *MailWorker) deliver(ctx context.Context, msg mailer.Message) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := w.sender.Send(sendCtx, msg); err != nil {
		log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("Failed to send email")
		return
	}
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
}
