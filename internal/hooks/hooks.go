// Package hooks provides the fixed lifecycle extension points. Two hook
// shapes exist: a series hook whose handlers all run in registration order,
// each receiving the previous handler's result, and a bail hook where the
// first handler producing a result wins and later handlers are skipped.
package hooks

// Series runs every handler in registration order. Handlers receive the
// current value and return the (possibly rewritten) value passed to the
// next handler.
type Series[T any] struct {
	handlers []func(T) T
}

func (s *Series[T]) Tap(handler func(T) T) {
	if handler == nil {
		return
	}
	s.handlers = append(s.handlers, handler)
}

func (s *Series[T]) Call(value T) T {
	for _, handler := range s.handlers {
		value = handler(value)
	}
	return value
}

func (s *Series[T]) Len() int {
	return len(s.handlers)
}

// Bail asks each handler in registration order; the first one returning
// ok=true short-circuits the chain.
type Bail[T, R any] struct {
	handlers []func(T) (R, bool)
}

func (b *Bail[T, R]) Tap(handler func(T) (R, bool)) {
	if handler == nil {
		return
	}
	b.handlers = append(b.handlers, handler)
}

func (b *Bail[T, R]) Call(value T) (R, bool) {
	for _, handler := range b.handlers {
		if result, ok := handler(value); ok {
			return result, true
		}
	}
	var zero R
	return zero, false
}

func (b *Bail[T, R]) Len() int {
	return len(b.handlers)
}
