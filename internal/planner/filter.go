package planner

import (
	"fmt"
	"time"

	"github.com/harrison/actuator/internal/models"
)

// DefaultCooldown is how long a completed insight summary stays suppressed.
const DefaultCooldown = 12 * time.Hour

// CompletionIndex answers which summaries completed at or after a point in
// time. history.Store satisfies it.
type CompletionIndex interface {
	RecentlyCompleted(since time.Time) (map[string]time.Time, error)
}

// Filter drops insights whose summary completed within the cooldown window.
type Filter struct {
	index    CompletionIndex
	cooldown time.Duration
	now      func() time.Time
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) FilterOption {
	return func(f *Filter) {
		f.now = now
	}
}

// WithCooldown overrides the suppression window. Non-positive values are
// ignored.
func WithCooldown(d time.Duration) FilterOption {
	return func(f *Filter) {
		if d > 0 {
			f.cooldown = d
		}
	}
}

// NewFilter creates a filter over index.
func NewFilter(index CompletionIndex, opts ...FilterOption) *Filter {
	f := &Filter{
		index:    index,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Cooldown returns the suppression window.
func (f *Filter) Cooldown() time.Duration {
	return f.cooldown
}

// FilterCompleted returns the insights whose summary has no completed
// record within the cooldown, preserving order. A record exactly at the
// window edge still suppresses.
//
// When the history cannot be read the input is returned unchanged together
// with the read error; callers treat the error as a warning.
func (f *Filter) FilterCompleted(insights []models.Insight) ([]models.Insight, error) {
	if f.index == nil || len(insights) == 0 {
		return insights, nil
	}

	since := f.now().Add(-f.cooldown)
	recent, err := f.index.RecentlyCompleted(since)
	if err != nil {
		return insights, fmt.Errorf("read completion history: %w", err)
	}
	if len(recent) == 0 {
		return insights, nil
	}

	admitted := make([]models.Insight, 0, len(insights))
	for _, insight := range insights {
		if _, done := recent[insight.Summary]; done {
			continue
		}
		admitted = append(admitted, insight)
	}
	return admitted, nil
}
