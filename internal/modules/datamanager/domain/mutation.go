package domain

import (
	"fmt"
	"strings"
	"time"
)

// MutationKind enumerates the mutation verbs the engine dispatches.
type MutationKind string

const (
	MutationSave         MutationKind = "save"
	MutationDelete       MutationKind = "delete"
	MutationBulkDelete   MutationKind = "bulk-delete"
	MutationBulkRestore  MutationKind = "bulk-restore"
	MutationRestore      MutationKind = "restore"
	MutationForceDelete  MutationKind = "force-delete"
	MutationToggleActive MutationKind = "toggle-active"
)

// Destructive reports whether the mutation must pass the confirmation gate.
func (k MutationKind) Destructive() bool {
	switch k {
	case MutationDelete, MutationBulkDelete, MutationBulkRestore, MutationRestore, MutationForceDelete:
		return true
	default:
		return false
	}
}

// MutationOutcome is the variant of a MutationResult.
type MutationOutcome string

const (
	OutcomeSucceeded MutationOutcome = "succeeded"
	OutcomeFailed    MutationOutcome = "failed"
	OutcomeCancelled MutationOutcome = "cancelled"
)

// MutationResult describes what happened to one mutation. Notification is derived from it
// by a separate consumer.
type MutationResult struct {
	ID        string              `json:"id"`
	Kind      MutationKind        `json:"kind"`
	Endpoint  string              `json:"endpoint"`
	Outcome   MutationOutcome     `json:"outcome"`
	EntityIDs []int64             `json:"entityIds,omitempty"`
	Label     string              `json:"label,omitempty"`
	Entity    Entity              `json:"entity,omitempty"`
	Prompt    *ConfirmationPrompt `json:"prompt,omitempty"`
	Err       error               `json:"-"`
	At        time.Time           `json:"at"`
}

func (r MutationResult) Succeeded() bool { return r.Outcome == OutcomeSucceeded }

// Reason returns the failure reason text, empty unless the mutation failed.
func (r MutationResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// ConfirmationPrompt is what the confirmation gate shows before a destructive mutation.
type ConfirmationPrompt struct {
	Kind     MutationKind `json:"kind"`
	Endpoint string       `json:"endpoint"`
	IDs      []int64      `json:"ids"`
	Label    string       `json:"label,omitempty"`
	Message  string       `json:"message"`
}

// NewConfirmationPrompt builds the prompt text for a destructive mutation.
func NewConfirmationPrompt(kind MutationKind, endpoint string, ids []int64, label string) ConfirmationPrompt {
	subject := strings.TrimSpace(label)
	if subject == "" {
		if len(ids) == 1 {
			subject = fmt.Sprintf("#%d", ids[0])
		} else {
			subject = fmt.Sprintf("%d items", len(ids))
		}
	}
	var message string
	switch kind {
	case MutationForceDelete:
		message = fmt.Sprintf("Permanently delete %s? This cannot be undone.", subject)
	case MutationRestore, MutationBulkRestore:
		message = fmt.Sprintf("Restore %s?", subject)
	default:
		message = fmt.Sprintf("Delete %s?", subject)
	}
	return ConfirmationPrompt{Kind: kind, Endpoint: endpoint, IDs: ids, Label: label, Message: message}
}

// BulkPolicy decides what bulk mutations do with selected ids that are missing from the
// last fetched listing.
type BulkPolicy string

const (
	// BulkIgnoreUnknown sends every selected id and relies on the backend to skip unknown ones.
	BulkIgnoreUnknown BulkPolicy = "ignore-unknown"
	// BulkFailBatch refuses the whole batch when any selected id is unknown.
	BulkFailBatch BulkPolicy = "fail-batch"
)

// ParseBulkPolicy defaults to BulkIgnoreUnknown.
func ParseBulkPolicy(raw string) BulkPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), string(BulkFailBatch)) {
		return BulkFailBatch
	}
	return BulkIgnoreUnknown
}

// NotificationLevel is the toast severity.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
	LevelInfo    NotificationLevel = "info"
)

// Notification is the user facing toast derived from a MutationResult.
type Notification struct {
	ID       string            `json:"id"`
	Level    NotificationLevel `json:"level"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Endpoint string            `json:"endpoint"`
	Kind     MutationKind      `json:"kind"`
	At       time.Time         `json:"at"`
}

// NotificationFromResult renders a mutation result as a toast.
func NotificationFromResult(title string, result MutationResult) Notification {
	notification := Notification{
		ID:       result.ID,
		Endpoint: result.Endpoint,
		Kind:     result.Kind,
		Title:    strings.TrimSpace(title),
		At:       result.At,
	}
	if notification.Title == "" {
		notification.Title = result.Endpoint
	}
	switch result.Outcome {
	case OutcomeSucceeded:
		notification.Level = LevelSuccess
		notification.Message = successMessage(result)
	case OutcomeCancelled:
		notification.Level = LevelInfo
		notification.Message = "Action cancelled"
	default:
		notification.Level = LevelError
		notification.Message = "Action failed"
		if reason := result.Reason(); reason != "" {
			notification.Message += ": " + reason
		}
	}
	return notification
}

func successMessage(result MutationResult) string {
	switch result.Kind {
	case MutationSave:
		return "Saved successfully"
	case MutationDelete:
		return "Deleted successfully"
	case MutationBulkDelete:
		return fmt.Sprintf("%d items deleted", len(result.EntityIDs))
	case MutationBulkRestore:
		return fmt.Sprintf("%d items restored", len(result.EntityIDs))
	case MutationRestore:
		return "Restored successfully"
	case MutationForceDelete:
		return "Permanently deleted"
	case MutationToggleActive:
		return "Status updated"
	default:
		return "Done"
	}
}
