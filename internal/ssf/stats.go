package ssf

import (
	"fmt"
	"time"
)

// StatsAggregator accumulates DeliveryStats across a service's lifetime so a
// loop can log a summary when it exits.
type StatsAggregator struct {
	count           int
	maxQueueing     time.Duration
	maxProcessing   time.Duration
	totalProcessing time.Duration
}

// NewStatsAggregator returns an empty aggregator.
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{}
}

// Add folds one delivery's stats in.
func (a *StatsAggregator) Add(s DeliveryStats) {
	a.count++
	a.totalProcessing += s.Processing
	if s.Queued > a.maxQueueing {
		a.maxQueueing = s.Queued
	}
	if s.Processing > a.maxProcessing {
		a.maxProcessing = s.Processing
	}
}

// Count returns the number of deliveries folded in so far.
func (a *StatsAggregator) Count() int { return a.count }

func (a *StatsAggregator) String() string {
	if a.count == 0 {
		return "calls: 0"
	}
	avg := a.totalProcessing / time.Duration(a.count)
	return fmt.Sprintf("calls: %d max queueing: %s processing (avg/max): %s/%s",
		a.count, a.maxQueueing, avg, a.maxProcessing)
}
