// Package mutate wraps single-record mutations with ownership checks and
// change-event publication. Batch mutations are intentionally not wrapped:
// their per-item ownership targeting is ambiguous, so they never publish.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mealboard/internal/auth"
	"mealboard/internal/notify"
)

// ErrUnauthorized is returned when the caller does not own the target
// record. The wrapped mutation is never executed in that case.
var ErrUnauthorized = errors.New("unauthorized")

// Caller identifies who is performing a mutation and from which browser
// tab. ClientID comes from the x-client-id header and may be empty; an
// empty ClientID only degrades self-echo filtering, never correctness.
type Caller struct {
	Identity auth.Identity
	ClientID string
}

// Ownership carries the ownership key candidates of a mutation's
// arguments. Resolution precedence is fixed: the explicit UserID argument
// wins, then the filter's, then the record's. First non-empty wins.
type Ownership struct {
	UserID       string
	FilterUserID string
	RecordUserID string
}

// Resolve returns the effective ownership key, or "" when none is present.
func (o Ownership) Resolve() string {
	if o.UserID != "" {
		return o.UserID
	}
	if o.FilterUserID != "" {
		return o.FilterUserID
	}
	return o.RecordUserID
}

// Interceptor authorizes and publishes around entity mutations.
type Interceptor struct {
	notifier         *notify.Notifier
	allowDevOverride bool
}

// New creates an Interceptor publishing to the given notifier.
func New(notifier *notify.Notifier, allowDevOverride bool) *Interceptor {
	return &Interceptor{notifier: notifier, allowDevOverride: allowDevOverride}
}

// Authorize checks the caller against the resolved ownership key without
// running a mutation. Exposed for read paths that share the same rule.
func (i *Interceptor) Authorize(caller Caller, own Ownership) error {
	if i.isDev(caller) {
		return nil
	}
	owner := own.Resolve()
	if owner == "" || caller.Identity.ID != owner {
		return fmt.Errorf("caller %q does not own target %q: %w", caller.Identity.ID, owner, ErrUnauthorized)
	}
	return nil
}

func (i *Interceptor) isDev(caller Caller) bool {
	return i.allowDevOverride && caller.Identity.ID == auth.DevID
}

// Do runs a single-record mutation under the ownership rule and, on
// success, publishes a change event on "{event}.{owner}" carrying the
// mutated record and the caller's client id.
//
// When the ownership key cannot be resolved (possible only for the dev
// identity), the mutation still runs but the publish is skipped and
// logged; the write has already succeeded and must not be failed.
func Do[T any](ctx context.Context, i *Interceptor, event string, caller Caller, own Ownership, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := i.Authorize(caller, own); err != nil {
		return zero, err
	}

	result, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	owner := own.Resolve()
	if owner == "" {
		slog.Warn("skipping change event: ownership key unresolved",
			"event", event, "caller", caller.Identity.ID)
		i.notifier.CountSkipped(event)
		return result, nil
	}

	i.notifier.Publish(notify.Event{
		Topic:          Topic(event, owner),
		Payload:        result,
		OriginClientID: caller.ClientID,
	})
	return result, nil
}

// Topic builds the notification topic for an event kind and owner.
func Topic(event, owner string) string {
	return event + "." + owner
}
