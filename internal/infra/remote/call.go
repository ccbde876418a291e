package remote

import (
	"context"
	"errors"
	"time"

	"mcpshadow/internal/domain"
)

// Func is a single remote operation.
type Func[T any] func(ctx context.Context) (T, error)

// Do runs fn exactly once under a deadline derived from ctx and timeout and
// returns its value or a classified error. There are no retries: a caller that
// needs the result again must call again.
func Do[T any](ctx context.Context, op string, timeout time.Duration, fn Func[T]) domain.Outcome[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return domain.Fail[T](Classify(op, err))
	}

	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	value, err := fn(callCtx)
	if err != nil {
		if ctxErr := callCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(ctxErr, err)
		}
		return domain.Fail[T](Classify(op, err))
	}
	return domain.Ok(value)
}

// Classify maps a remote call failure onto the domain taxonomy. Errors that
// already carry a code keep it.
func Classify(op string, err error) *domain.Error {
	if err == nil {
		return nil
	}
	var existing *domain.Error
	if errors.As(err, &existing) {
		return domain.Wrap(existing.Code, op, err)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.E(domain.CodeDeadlineExceeded, op, "", err)
	case errors.Is(err, context.Canceled):
		return domain.E(domain.CodeCanceled, op, "", err)
	default:
		return domain.E(domain.CodeNetwork, op, "", err)
	}
}

// Protocol builds an error for a reply that arrived but could not be used.
func Protocol(msg string, cause error) *domain.Error {
	return domain.E(domain.CodeProtocol, "", msg, cause)
}
