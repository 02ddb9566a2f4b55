package app

import (
	"context"
	"time"

	"darkwave/pkg/domain"
	"darkwave/pkg/notify"
)

const publishTimeout = 3 * time.Second

// SubmitMessage saves a contact form message and announces it. A failed
// announcement is logged; the message is still kept.
func (a *App) SubmitMessage(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, bool) {
	saved, ok := a.Messages.Create(ctx, msg)
	if !ok {
		return saved, false
	}
	event := notify.Event{
		ID:         saved.ID,
		Type:       notify.EventMessageCreated,
		OccurredAt: time.Now().UTC(),
		Data:       saved,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := a.publisher.Publish(pubCtx, event); err != nil {
		a.logger.Warn("publish message event failed", "id", saved.ID, "err", err)
	}
	return saved, true
}
