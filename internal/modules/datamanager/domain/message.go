package domain

import (
	"strings"
	"time"
)

const (
	SystemEntity = "system"

	TopicSystemConnected = SystemEntity + ".connected"
	TopicSystemPong      = SystemEntity + ".pong"

	TopicNotification       = "notification"
	TopicListingInvalidated = "listing.invalidated"

	ActionConnected   = "connected"
	ActionPong        = "pong"
	ActionNotify      = "notify"
	ActionInvalidated = "invalidated"
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDeleted     = "deleted"
	ActionRestored    = "restored"
)

// Message is the envelope shared by backend change events and websocket pushes.
type Message struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// BuildNotificationMessage wraps a toast for the session that triggered the mutation.
func BuildNotificationMessage(notification Notification, userID, sessionID string) *Message {
	return &Message{
		Topic:     TopicNotification,
		Entity:    notification.Endpoint,
		Action:    ActionNotify,
		Metadata:  targetMetadata(userID, sessionID),
		Data:      notification,
		Timestamp: notification.At.UTC(),
	}
}

// BuildInvalidationMessage tells every open screen of endpoint that its listing went stale.
func BuildInvalidationMessage(endpoint, cause string, at time.Time) *Message {
	return &Message{
		Topic:  TopicListingInvalidated,
		Entity: strings.TrimSpace(endpoint),
		Action: ActionInvalidated,
		Metadata: map[string]string{
			"cause": strings.TrimSpace(cause),
		},
		Timestamp: at.UTC(),
	}
}

func targetMetadata(userID, sessionID string) map[string]string {
	metadata := map[string]string{}
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		metadata["userId"] = trimmed
	}
	if trimmed := strings.TrimSpace(sessionID); trimmed != "" {
		metadata["sessionId"] = trimmed
	}
	return metadata
}
