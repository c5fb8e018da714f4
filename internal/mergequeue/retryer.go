package mergequeue

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/simplesurance/landlord/internal/landerr"
	"github.com/simplesurance/landlord/internal/logfields"
)

// Retryer executes an operation repeatedly until it succeeded, it failed
// permanently or the retry timeout expired.
type Retryer struct {
	logger                 *zap.Logger
	maxRetryTimeout        time.Duration
	backoffInitialInterval time.Duration
}

func NewRetryer(maxRetryTimeout time.Duration) *Retryer {
	return &Retryer{
		logger:                 zap.L().Named("retryer"),
		maxRetryTimeout:        maxRetryTimeout,
		backoffInitialInterval: 2 * time.Second,
	}
}

// Run executes fn until it succeeds, it returns an error that does not wrap
// landerr.RetryableError, the context is cancelled or the retry timeout
// expired.
func (r *Retryer) Run(ctx context.Context, fn func(context.Context) error, logF []zap.Field) error {
	var tryCnt uint

	endTime := time.Now().Add(r.maxRetryTimeout)

	retryTimeout := time.NewTimer(r.maxRetryTimeout)
	defer retryTimeout.Stop()

	retryTimer := time.NewTimer(0)
	defer retryTimer.Stop()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.backoffInitialInterval

	for {
		tryCnt++
		logger := r.logger.With(logF...).With(zap.Uint("try_count", tryCnt))

		select {
		case <-ctx.Done():
			logger.Info(
				"operation cancelled",
				logfields.Event("operation_cancelled"),
			)

			return ctx.Err()

		case <-retryTimer.C:
			err := fn(ctx)
			if err != nil {
				var retryError *landerr.RetryableError

				logger = logger.With(zap.Error(err))

				if errors.Is(err, context.Canceled) {
					logger.Info(
						"operation cancelled",
						logfields.Event("operation_cancelled"),
					)

					return err
				}

				if errors.As(err, &retryError) {
					if retryError.After.After(endTime) {
						logger.Warn(
							"operation failed, next allowed retry is after the retry timeout",
							logfields.Event("operation_failed"),
							zap.Time("earliest_allowed_retry", retryError.After),
							zap.Duration("retry_timeout", r.maxRetryTimeout),
						)

						return err
					}

					var retryIn time.Duration

					if retryError.After.IsZero() {
						retryIn = bo.NextBackOff()
					} else {
						retryIn = time.Until(retryError.After)
					}

					retryTimer.Reset(retryIn)
					logger.Info(
						"operation failed, retry scheduled",
						logfields.Event("operation_retry_scheduled"),
						zap.Duration("retry_in", retryIn),
					)

					continue
				}

				logger.Warn(
					"operation failed, not retryable",
					logfields.Event("operation_failed"),
				)

				return err
			}

			if tryCnt > 1 {
				logger.Info(
					"operation succeeded after retries",
					logfields.Event("operation_succeeded"),
				)
			}

			return nil

		case <-retryTimeout.C:
			logger.Warn(
				"giving up retrying operation, retry timeout expired",
				logfields.Event("operation_retry_timeout"),
				zap.Duration("retry_timeout", r.maxRetryTimeout),
			)

			return errors.New("retry timeout expired")
		}
	}
}
