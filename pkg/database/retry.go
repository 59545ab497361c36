package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// RetryPolicy bounds startup retries against a database that may still be
// coming up.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	// Jitter is the fraction of each delay that is randomised, in [0, 1).
	Jitter float64
}

// DefaultRetryPolicy waits roughly 1s then 2s between three attempts.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, BaseDelay: time.Second, Jitter: 0.25}

// delay returns the wait after the given zero-based failed attempt: the base
// delay doubled per attempt, spread uniformly by ±Jitter.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << max(attempt, 0)
	spread := p.Jitter * (2*rand.Float64() - 1) // #nosec G404 -- jitter only
	return d + time.Duration(float64(d)*spread)
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts run out. The wait between attempts honours ctx.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op string, retryable func(error) bool, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for attempt := range attempts {
		if err = fn(ctx); err == nil || !retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		wait := p.delay(attempt)
		if logger != nil {
			logger.WarnContext(ctx, op+" failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", attempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: gave up waiting to retry: %w", op, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s: %d attempts failed: %w", op, attempts, err)
}

// IsTransient reports whether err comes from reaching the server rather
// than from the statement itself. Server-side errors such as syntax or
// constraint violations are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	default:
		return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
	}
}

func always(error) bool { return true }
