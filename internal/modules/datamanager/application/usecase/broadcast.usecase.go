package usecase

import (
	"context"
	"log/slog"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/domain"
)

type BroadcastUseCase struct {
	broadcaster port.Broadcaster
}

func NewBroadcastUseCase(b port.Broadcaster) *BroadcastUseCase {
	return &BroadcastUseCase{broadcaster: b}
}

func (uc *BroadcastUseCase) Execute(ctx context.Context, msg *domain.Message) {
	if uc == nil || uc.broadcaster == nil || msg == nil {
		return
	}
	uc.broadcaster.Broadcast(ctx, msg)
}

// NotificationDispatcher turns mutation results into toasts for the session that issued them.
type NotificationDispatcher struct {
	catalog   *domain.ScreenCatalog
	broadcast *BroadcastUseCase
}

func NewNotificationDispatcher(catalog *domain.ScreenCatalog, broadcast *BroadcastUseCase) *NotificationDispatcher {
	return &NotificationDispatcher{catalog: catalog, broadcast: broadcast}
}

func (d *NotificationDispatcher) Notify(ctx context.Context, result domain.MutationResult) {
	title := result.Endpoint
	if screen, ok := d.catalog.Find(result.Endpoint); ok {
		title = screen.Title
	}
	notification := domain.NotificationFromResult(title, result)
	session, _ := SessionFromContext(ctx)
	slog.Debug("notification dispatch", slog.String("endpoint", result.Endpoint), slog.String("level", string(notification.Level)), slog.String("sessionId", session.SessionID))
	d.broadcast.Execute(ctx, domain.BuildNotificationMessage(notification, session.UserID, session.SessionID))
}

// NotifierFunc adapts a function to port.Notifier.
type NotifierFunc func(ctx context.Context, result domain.MutationResult)

func (f NotifierFunc) Notify(ctx context.Context, result domain.MutationResult) { f(ctx, result) }

var (
	_ port.Notifier = (*NotificationDispatcher)(nil)
	_ port.Notifier = NotifierFunc(nil)
)
