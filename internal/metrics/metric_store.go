package metrics

import "fmt"

// ErrCapacity is returned when a reading would introduce a new key beyond a
// store's configured cardinality cap. The caller logs and drops it; it is
// never fatal.
var ErrCapacity = fmt.Errorf("metric store: cardinality capacity reached")

// ErrKindMismatch is returned when a reading's kind doesn't match the kind
// already claimed by its key in this store.
var ErrKindMismatch = fmt.Errorf("metric store: reading kind does not match key's existing kind")

type counterState struct {
	sum       float64
	timestamp int64
}

type gaugeState struct {
	value     float64
	timestamp int64
}

type histogramState struct {
	min, max float64
	sum      float64
	count    int
}

type twaState struct {
	sumWeighted float64
	sumWeight   float64
	lastValue   float64
	lastNanos   int64
	seeded      bool
}

// entry holds exactly one kind's aggregation state, matching whichever kind
// first claimed the key.
type entry struct {
	kind      ReadingKind
	counter   counterState
	gauge     gaugeState
	histogram histogramState
	twa       twaState
}

// InMemoryMetricStore accumulates keyed readings in arrival order, bounded to
// at most maxKeys distinct keys.
type InMemoryMetricStore struct {
	maxKeys int
	entries map[string]*entry
}

// NewInMemoryMetricStore returns an empty store capped at maxKeys distinct
// metric keys. maxKeys <= 0 means unbounded.
func NewInMemoryMetricStore(maxKeys int) *InMemoryMetricStore {
	return &InMemoryMetricStore{maxKeys: maxKeys, entries: make(map[string]*entry)}
}

// Add folds one reading in. Returns ErrCapacity if it would introduce a new
// key beyond the cap.
func (s *InMemoryMetricStore) Add(reading KeyedMetricReading) error {
	key := reading.Name.String()
	e, exists := s.entries[key]
	if !exists {
		if s.maxKeys > 0 && len(s.entries) >= s.maxKeys {
			return ErrCapacity
		}
		e = &entry{kind: reading.Value.Kind}
		s.entries[key] = e
	} else if e.kind != reading.Value.Kind {
		return ErrKindMismatch
	}

	ts := reading.Value.Timestamp.UnixNano()

	switch reading.Value.Kind {
	case KindCounter:
		e.counter.sum += reading.Value.Value
		e.counter.timestamp = ts
	case KindGauge:
		if !exists || ts >= e.gauge.timestamp {
			e.gauge.value = reading.Value.Value
			e.gauge.timestamp = ts
		}
	case KindHistogram:
		if !exists || e.histogram.count == 0 {
			e.histogram.min = reading.Value.Value
			e.histogram.max = reading.Value.Value
		} else {
			if reading.Value.Value < e.histogram.min {
				e.histogram.min = reading.Value.Value
			}
			if reading.Value.Value > e.histogram.max {
				e.histogram.max = reading.Value.Value
			}
		}
		e.histogram.sum += reading.Value.Value
		e.histogram.count++
	case KindTimeWeightedAverage:
		var weight float64
		if !e.twa.seeded {
			weight = reading.Value.Interval.Seconds()
			e.twa.seeded = true
		} else {
			dt := float64(ts-e.twa.lastNanos) / 1e9
			if dt < 0 {
				dt = 0
			}
			weight = dt
		}
		e.twa.sumWeighted += reading.Value.Value * weight
		e.twa.sumWeight += weight
		e.twa.lastValue = reading.Value.Value
		e.twa.lastNanos = ts
	}
	return nil
}

// Len reports the number of distinct keys currently held.
func (s *InMemoryMetricStore) Len() int { return len(s.entries) }

// Keys returns the set of distinct keys currently held.
func (s *InMemoryMetricStore) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Finalize reduces every key to its final MetricValue and clears the store.
func (s *InMemoryMetricStore) Finalize() map[string]MetricValue {
	out := make(map[string]MetricValue, len(s.entries))
	for key, e := range s.entries {
		switch e.kind {
		case KindCounter:
			out[key] = NumberValue(e.counter.sum)
		case KindGauge:
			out[key] = NumberValue(e.gauge.value)
		case KindHistogram:
			if e.histogram.count > 0 {
				out[key] = HistogramValue(Histogram{
					Min:  e.histogram.min,
					Mean: e.histogram.sum / float64(e.histogram.count),
					Max:  e.histogram.max,
				})
			}
		case KindTimeWeightedAverage:
			if e.twa.sumWeight > 0 {
				out[key] = NumberValue(e.twa.sumWeighted / e.twa.sumWeight)
			}
		}
	}
	s.entries = make(map[string]*entry)
	return out
}

// MergeReadings folds every reading in readings into s, respecting s's
// cardinality cap, and returns one error per reading that was rejected.
func (s *InMemoryMetricStore) MergeReadings(readings []KeyedMetricReading) []error {
	var errs []error
	for _, r := range readings {
		if err := s.Add(r); err != nil {
			errs = append(errs, fmt.Errorf("metric %s: %w", r.Name, err))
		}
	}
	return errs
}
