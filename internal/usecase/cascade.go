package usecase

import "context"

// attempt is one tier of a capability cascade: a named strategy producing a
// value or an error.
type attempt[T any] struct {
	name string
	run  func(ctx context.Context) (T, error)
}

// tryInOrder evaluates attempts in order and returns the first success along
// with its index. When every attempt fails it returns the last error. The
// cascade depth and order are plain data, not nested handlers.
func tryInOrder[T any](ctx context.Context, attempts []attempt[T]) (T, int, error) {
	var zero T
	var lastErr error
	for i, a := range attempts {
		v, err := a.run(ctx)
		if err == nil {
			return v, i, nil
		}
		lastErr = err
	}
	return zero, len(attempts) - 1, lastErr
}
