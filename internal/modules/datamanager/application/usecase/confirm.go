package usecase

import (
	"context"

	"pharmadash/internal/modules/datamanager/domain"
)

type confirmationContextKey struct{}

// WithConfirmation records on ctx whether the caller already accepted the confirmation gate.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmationContextKey{}, confirmed)
}

// ContextConfirmer passes the gate only when the request context carries an explicit
// confirmation. It suits request/response transports where the prompt is shown by the
// client and the action re-submitted.
type ContextConfirmer struct{}

func (ContextConfirmer) Confirm(ctx context.Context, _ domain.ConfirmationPrompt) (bool, error) {
	confirmed, _ := ctx.Value(confirmationContextKey{}).(bool)
	return confirmed, nil
}

// AlwaysConfirm accepts every prompt.
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(context.Context, domain.ConfirmationPrompt) (bool, error) {
	return true, nil
}
