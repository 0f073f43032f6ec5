package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pharmadash/internal/modules/datamanager/application/port"
	"pharmadash/internal/modules/datamanager/application/usecase"
	"pharmadash/internal/modules/datamanager/domain"
	"pharmadash/internal/shared/normalization"
)

// ChangeEventHandler invalidates cached listings when the backend reports a write on a
// Kafka topic, then tells open screens of that endpoint to reload.
type ChangeEventHandler struct {
	kafkaTopic     string
	entity         string
	allowedActions map[string]struct{}
	loader         *usecase.ListingLoader
	registry       *usecase.ManagerRegistry
	broadcastUC    *usecase.BroadcastUseCase
}

func NewChangeEventHandler(kafkaTopic, entity string, allowedActions []string, loader *usecase.ListingLoader, registry *usecase.ManagerRegistry, broadcastUC *usecase.BroadcastUseCase) *ChangeEventHandler {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &ChangeEventHandler{
		kafkaTopic:     strings.TrimSpace(kafkaTopic),
		entity:         strings.TrimSpace(entity),
		allowedActions: actionSet,
		loader:         loader,
		registry:       registry,
		broadcastUC:    broadcastUC,
	}
}

func (h *ChangeEventHandler) Topic() string { return h.kafkaTopic }

func (h *ChangeEventHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(strings.TrimSpace(msg.Action))]; !ok {
			return nil
		}
	}
	entityName := h.entity
	if entityName == "" {
		entityName = msg.Entity
	}
	endpoint := normalization.NormalizeEndpoint(entityName)
	if endpoint == "" {
		slog.Warn("change-event missing entity", slog.String("topic", h.kafkaTopic), slog.String("action", msg.Action))
		return nil
	}

	removed := 0
	if h.loader != nil {
		removed = h.loader.Invalidate(endpoint)
	}
	slog.Info("change-event invalidated listing", slog.String("endpoint", endpoint), slog.String("action", msg.Action), slog.Int("entries", removed))
	h.reloadManagers(ctx, endpoint)

	at := msg.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	h.broadcastUC.Execute(ctx, domain.BuildInvalidationMessage(endpoint, msg.Action, at))
	return nil
}

// reloadManagers refetches every live engine of endpoint so REST views are current before
// clients react to the invalidation message.
func (h *ChangeEventHandler) reloadManagers(ctx context.Context, endpoint string) {
	if h.registry == nil {
		return
	}
	for _, manager := range h.registry.ManagersFor(endpoint) {
		if err := manager.Load(ctx); err != nil {
			slog.Warn("change-event reload failed", slog.String("endpoint", endpoint), slog.Any("error", err))
		}
	}
}

var _ port.TopicHandler = (*ChangeEventHandler)(nil)
