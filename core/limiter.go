package core

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrCallLimit is returned once a run has spent its reasoning-call budget.
var ErrCallLimit = errors.New("reasoning call budget exhausted")

// CallLimiter caps the number of reasoning-service calls made during one run.
// It is a budget shared by every agent of the tree, not a retry policy.
// A zero max means unlimited.
type CallLimiter struct {
	max   int64
	spent atomic.Int64
}

// NewCallLimiter creates a limiter allowing max calls (0 = unlimited).
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: int64(max)}
}

// Acquire books one call. It fails with ErrCallLimit when the budget is spent;
// the failed attempt is still counted.
func (cl *CallLimiter) Acquire() error {
	n := cl.spent.Add(1)
	if cl.max > 0 && n > cl.max {
		return fmt.Errorf("%w (max %d)", ErrCallLimit, cl.max)
	}
	return nil
}

// Spent returns the number of calls booked so far, capped at the budget.
func (cl *CallLimiter) Spent() int {
	n := cl.spent.Load()
	if cl.max > 0 && n > cl.max {
		return int(cl.max)
	}
	return int(n)
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (cl *CallLimiter) Remaining() int {
	if cl.max == 0 {
		return -1
	}
	left := cl.max - cl.spent.Load()
	if left < 0 {
		return 0
	}
	return int(left)
}
