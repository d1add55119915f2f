package tradingprovider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := max(p.Attempts, 1)

	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Delay
	b.Multiplier = multiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// withRetry runs call under the policy. Errors that are not external, such as validation
// failures, are returned at once.
func withRetry[T any](ctx context.Context, policy RetryPolicy, call func() (T, error)) (T, error) {
	return backoff.RetryWithData(func() (T, error) {
		v, err := call()
		if err != nil && !errors.IsExternal(err) {
			return v, backoff.Permanent(err)
		}

		return v, err
	}, policy.backOff(ctx))
}
