package service

import (
	"context"

	"github.com/embedkit/embedkit/internal/apperr"
)

// Numeric adds clamp-aware mutations on top of a CounterStore, for services
// whose primary value is a bounded counter. A total never goes negative and
// never exceeds the ceiling; overflow clamps instead of erroring.
type Numeric struct {
	counters CounterStore
	ceiling  int64
}

func NewNumeric(counters CounterStore, ceiling int64) *Numeric {
	return &Numeric{counters: counters, ceiling: ceiling}
}

func (n *Numeric) Ceiling() int64 { return n.ceiling }

// Increment adds one and clamps at the ceiling.
func (n *Numeric) Increment(ctx context.Context, key string) (int64, error) {
	v, err := n.counters.Increment(ctx, key)
	if err != nil {
		return 0, err
	}
	if v > n.ceiling {
		if err := n.counters.Set(ctx, key, n.ceiling); err != nil {
			return 0, err
		}
		return n.ceiling, nil
	}
	return v, nil
}

// Decrement subtracts one and clamps at zero.
func (n *Numeric) Decrement(ctx context.Context, key string) (int64, error) {
	v, err := n.counters.Decrement(ctx, key)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		if err := n.counters.Set(ctx, key, 0); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return v, nil
}

// SetValue overwrites the counter with value clamped into [0, ceiling].
// Negative input is rejected rather than silently zeroed; only overflow
// clamps.
func (n *Numeric) SetValue(ctx context.Context, key string, value int64) (int64, error) {
	if value < 0 {
		return 0, apperr.Validation("counter value must not be negative")
	}
	if value > n.ceiling {
		value = n.ceiling
	}
	if err := n.counters.Set(ctx, key, value); err != nil {
		return 0, err
	}
	return value, nil
}
