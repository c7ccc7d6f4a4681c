package ctxstore

import "context"

// Key names a request-scoped value, e.g. the trace id set by middleware.
type Key string

func (k Key) String() string {
	return string(k)
}

func With[T any](ctx context.Context, key Key, value T) context.Context {
	return context.WithValue(ctx, key, value)
}

func From[T any](ctx context.Context, key Key) (T, bool) {
	value, ok := ctx.Value(key).(T)
	return value, ok
}

// FromOr returns the stored value, or fallback when key is unset.
func FromOr[T any](ctx context.Context, key Key, fallback T) T {
	if value, ok := From[T](ctx, key); ok {
		return value
	}
	return fallback
}

func MustFrom[T any](ctx context.Context, key Key) T {
	value, ok := From[T](ctx, key)
	if !ok {
		panic("ctxstore: " + key.String() + " not found")
	}
	return value
}
