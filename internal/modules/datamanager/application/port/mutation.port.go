package port

import (
	"context"
	"errors"

	"pharmadash/internal/modules/datamanager/domain"
)

var (
	// ErrMutationRejected indicates the backend refused a mutation (validation, conflict, etc).
	ErrMutationRejected = errors.New("mutation rejected")
	// ErrStaleSelection is returned by the fail-batch policy when selected ids are no longer listed.
	ErrStaleSelection = errors.New("selection holds ids missing from the listing")
	// ErrEmptySelection is returned when a bulk mutation has nothing selected.
	ErrEmptySelection = errors.New("selection is empty")
	// ErrConfirmationDeclined marks mutations the user did not confirm.
	ErrConfirmationDeclined = errors.New("confirmation declined")
	// ErrEntityMissing indicates a single-row mutation targets a row without id.
	ErrEntityMissing = errors.New("entity id missing")
	// ErrNotInDeletedBucket is returned when force delete is attempted outside the deleted listing.
	ErrNotInDeletedBucket = errors.New("force delete is only available for deleted rows")
	// ErrScreenForbidden indicates the session roles do not grant access to the screen.
	ErrScreenForbidden = errors.New("screen forbidden for session roles")
)

// EntityMutator issues the write calls of an endpoint.
type EntityMutator interface {
	Create(ctx context.Context, token, endpoint string, body domain.Entity) (domain.Entity, error)
	Update(ctx context.Context, token, endpoint string, id int64, body domain.Entity) (domain.Entity, error)
	SoftDelete(ctx context.Context, token, endpoint string, ids []int64) error
	Restore(ctx context.Context, token, endpoint string, ids []int64) error
	ForceDelete(ctx context.Context, token, endpoint string, ids []int64) error
	SetActive(ctx context.Context, token, endpoint string, id int64, active bool) error
}

// Confirmer is the confirmation gate in front of destructive mutations.
type Confirmer interface {
	Confirm(ctx context.Context, prompt domain.ConfirmationPrompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt domain.ConfirmationPrompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt domain.ConfirmationPrompt) (bool, error) {
	return f(ctx, prompt)
}

// Notifier consumes mutation results, typically turning them into toasts.
type Notifier interface {
	Notify(ctx context.Context, result domain.MutationResult)
}
