package ratelimit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Budget caps one source's request volume on two fixed wall-clock windows.
type Budget struct {
	PerMinute int
	PerHour   int
}

func DefaultBudget() Budget {
	return Budget{
		PerMinute: 60,
		PerHour:   1000,
	}
}

// Limiter tracks per-source request budgets. Window counters live in a Store;
// when the store is unreachable the limiter fails permissive, because search
// availability must not depend on the limiter's own infrastructure.
type Limiter struct {
	store    Store
	defaults Budget

	mu        sync.RWMutex
	budgets   map[string]Budget
	smoothers map[string]*rate.Limiter

	now func() time.Time
}

func NewLimiter(store Store, defaults Budget) *Limiter {
	return &Limiter{
		store:     store,
		defaults:  defaults,
		budgets:   make(map[string]Budget),
		smoothers: make(map[string]*rate.Limiter),
		now:       time.Now,
	}
}

// SetSourceBudget overrides the window budgets for one source and sizes its
// token-bucket smoother so short bursts cannot consume the whole minute.
func (l *Limiter) SetSourceBudget(source string, budget Budget) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.budgets[source] = budget
	l.smoothers[source] = rate.NewLimiter(rate.Limit(float64(budget.PerMinute)/60.0), budget.PerMinute/4+1)
}

func (l *Limiter) budget(source string) Budget {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if b, ok := l.budgets[source]; ok {
		return b
	}
	return l.defaults
}

func (l *Limiter) smoother(source string) *rate.Limiter {
	l.mu.RLock()
	s, ok := l.smoothers[source]
	l.mu.RUnlock()
	if ok {
		return s
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok = l.smoothers[source]; ok {
		return s
	}
	b := l.defaults
	s = rate.NewLimiter(rate.Limit(float64(b.PerMinute)/60.0), b.PerMinute/4+1)
	l.smoothers[source] = s
	return s
}

func (l *Limiter) minuteKey(source string) string {
	return fmt.Sprintf("ratelimit:%s:m:%d", source, l.now().Unix()/60)
}

func (l *Limiter) hourKey(source string) string {
	return fmt.Sprintf("ratelimit:%s:h:%d", source, l.now().Unix()/3600)
}

// Check reports whether the source has budget left in both windows without
// consuming any of it.
func (l *Limiter) Check(ctx context.Context, source string) bool {
	b := l.budget(source)

	minute, err := l.store.Get(ctx, l.minuteKey(source))
	if err != nil {
		log.Printf("ratelimit: store unavailable for %s, allowing request: %v", source, err)
		return true
	}
	hour, err := l.store.Get(ctx, l.hourKey(source))
	if err != nil {
		log.Printf("ratelimit: store unavailable for %s, allowing request: %v", source, err)
		return true
	}

	return minute < int64(b.PerMinute) && hour < int64(b.PerHour)
}

// Increment consumes one unit from both windows.
func (l *Limiter) Increment(ctx context.Context, source string) {
	if _, err := l.store.Incr(ctx, l.minuteKey(source), time.Minute); err != nil {
		log.Printf("ratelimit: failed to increment minute counter for %s: %v", source, err)
		return
	}
	if _, err := l.store.Incr(ctx, l.hourKey(source), time.Hour); err != nil {
		log.Printf("ratelimit: failed to increment hour counter for %s: %v", source, err)
	}
}

// Remaining returns the tighter of the two window budgets.
func (l *Limiter) Remaining(ctx context.Context, source string) int {
	b := l.budget(source)

	minute, err := l.store.Get(ctx, l.minuteKey(source))
	if err != nil {
		return b.PerMinute
	}
	hour, err := l.store.Get(ctx, l.hourKey(source))
	if err != nil {
		return b.PerMinute
	}

	minuteLeft := int64(b.PerMinute) - minute
	hourLeft := int64(b.PerHour) - hour
	left := minuteLeft
	if hourLeft < left {
		left = hourLeft
	}
	if left < 0 {
		return 0
	}
	return int(left)
}

// Wait blocks until the source's smoother admits one request or ctx is done.
func (l *Limiter) Wait(ctx context.Context, source string) error {
	return l.smoother(source).Wait(ctx)
}
