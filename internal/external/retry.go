package external

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/cristian75IT/kronos-core/internal/corekit"
)

// RetryLimiter throttles retry attempts against a flapping collaborator
// (spec §7 EXTERNAL_UNAVAILABLE): once a call fails, a fixed number of
// retries are allowed, each gated by a token-bucket limiter shared across
// every in-flight operation, so a dependency outage cannot be hammered by
// every caller retrying in lockstep.
type RetryLimiter struct {
	limiter *rate.Limiter
	retries int
}

// NewRetryLimiter builds a limiter allowing rps retry attempts per second
// (with the given burst) and up to retries attempts per call before giving
// up with KindExternalUnavailable.
func NewRetryLimiter(rps float64, burst int, retries int) *RetryLimiter {
	return &RetryLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		retries: retries,
	}
}

// DefaultRetryLimiter mirrors the short-backoff policy implied by §7: a
// handful of quick retries, rate-limited to roughly one per second.
func DefaultRetryLimiter() *RetryLimiter {
	return NewRetryLimiter(1.0, 3, 3)
}

// Do calls fn, retrying up to rl.retries times whenever fn returns an
// error, waiting on the shared limiter between attempts. The final error is
// wrapped as KindExternalUnavailable if every attempt failed.
func (rl *RetryLimiter) Do(ctx context.Context, collaborator string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= rl.retries; attempt++ {
		if attempt > 0 {
			if err := rl.limiter.Wait(ctx); err != nil {
				return corekit.Wrap(corekit.KindExternalUnavailable, collaborator+": retry limiter wait", err)
			}
		}
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return corekit.Wrap(corekit.KindExternalUnavailable, collaborator+": exhausted retries", lastErr)
}

// RetryingNotifier decorates a Notifier with RetryLimiter's short-backoff
// policy, for deployments where the notification collaborator is known to
// flap under load.
type RetryingNotifier struct {
	Next    Notifier
	Limiter *RetryLimiter
}

func (n RetryingNotifier) Notify(ctx context.Context, event Event) error {
	return n.Limiter.Do(ctx, "notifier", func(ctx context.Context) error {
		return n.Next.Notify(ctx, event)
	})
}

// RetryingDirectory decorates a Directory with RetryLimiter's short-backoff
// policy, so a flapping directory dependency does not fail an approval
// assignment outright on the first hiccup (spec §4.1 assignment calls
// GetApprovers/GetDepartment synchronously mid-transaction).
type RetryingDirectory struct {
	Next    Directory
	Limiter *RetryLimiter
}

func (d RetryingDirectory) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var out *User
	err := d.Limiter.Do(ctx, "directory.GetUser", func(ctx context.Context) error {
		u, err := d.Next.GetUser(ctx, id)
		out = u
		return err
	})
	return out, err
}

func (d RetryingDirectory) GetUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	var out []User
	err := d.Limiter.Do(ctx, "directory.GetUsers", func(ctx context.Context) error {
		users, err := d.Next.GetUsers(ctx, filter)
		out = users
		return err
	})
	return out, err
}

func (d RetryingDirectory) GetSubordinates(ctx context.Context, managerID uuid.UUID) ([]User, error) {
	var out []User
	err := d.Limiter.Do(ctx, "directory.GetSubordinates", func(ctx context.Context) error {
		users, err := d.Next.GetSubordinates(ctx, managerID)
		out = users
		return err
	})
	return out, err
}

func (d RetryingDirectory) GetApprovers(ctx context.Context) ([]User, error) {
	var out []User
	err := d.Limiter.Do(ctx, "directory.GetApprovers", func(ctx context.Context) error {
		users, err := d.Next.GetApprovers(ctx)
		out = users
		return err
	})
	return out, err
}

func (d RetryingDirectory) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	var out *Department
	err := d.Limiter.Do(ctx, "directory.GetDepartment", func(ctx context.Context) error {
		dept, err := d.Next.GetDepartment(ctx, id)
		out = dept
		return err
	})
	return out, err
}

func (d RetryingDirectory) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	var out *Service
	err := d.Limiter.Do(ctx, "directory.GetService", func(ctx context.Context) error {
		svc, err := d.Next.GetService(ctx, id)
		out = svc
		return err
	})
	return out, err
}

