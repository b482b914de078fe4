package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// PostgreSQL error codes of conflicts a rolled back atomic unit may retry.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

var retryReasons = map[string]string{
	pgErrDeadlock:             "deadlock",
	pgErrSerializationFailure: "serialization_failure",
}

// RetrierConfig tunes the backoff around an atomic unit. Zero fields take
// the defaults.
type RetrierConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetrierConfig returns the settings used by the server.
func DefaultRetrierConfig() RetrierConfig {
	return RetrierConfig{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Retrier implements usecase.Retrier. The operation passed to Retry must be
// a whole atomic unit that was rolled back before it returned.
type Retrier struct {
	cfg RetrierConfig
}

// NewRetrier creates a Retrier.
func NewRetrier(cfg RetrierConfig) *Retrier {
	def := DefaultRetrierConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = max(def.MaxInterval, cfg.InitialInterval)
	}
	return &Retrier{cfg: cfg}
}

// Retry re-runs operation while it fails with a lock conflict, at most
// MaxRetries times.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.cfg.InitialInterval
	exp.MaxInterval = r.cfg.MaxInterval
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, r.cfg.MaxRetries), ctx)
	logger := zerolog.Ctx(ctx)
	attempt := 0

	return backoff.RetryNotify(func() error {
		attempt++
		err := operation()
		if err != nil && retryReason(err) == "" {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn().
			Err(err).
			Str("reason", retryReason(err)).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("atomic unit conflicted, retrying")
	})
}

// retryReason names the conflict behind err, or returns "" when err must not
// be retried.
func retryReason(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryReasons[pgErr.Code]
	}
	return ""
}
