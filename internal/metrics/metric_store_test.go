package metrics

import (
	"testing"
	"time"
)

func mustKey(t *testing.T, s string) MetricStringKey {
	t.Helper()
	key, err := ParseMetricStringKey(s)
	if err != nil {
		t.Fatalf("ParseMetricStringKey(%q): %v", s, err)
	}
	return key
}

func TestInMemoryMetricStoreCounterSums(t *testing.T) {
	store := NewInMemoryMetricStore(0)
	key := mustKey(t, "requests")
	now := time.Now()

	if err := store.Add(NewKeyedMetricReading(key, NewCounter(1, now))); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(NewKeyedMetricReading(key, NewCounter(2, now.Add(time.Second)))); err != nil {
		t.Fatal(err)
	}

	values := store.Finalize()
	if values["requests"].Number != 3 {
		t.Errorf("expected sum 3, got %v", values["requests"])
	}
}

func TestInMemoryMetricStoreGaugeKeepsLatestByTimestamp(t *testing.T) {
	store := NewInMemoryMetricStore(0)
	key := mustKey(t, "temperature")
	now := time.Now()

	if err := store.Add(NewKeyedMetricReading(key, NewGauge(10, now.Add(time.Second)))); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(NewKeyedMetricReading(key, NewGauge(5, now))); err != nil {
		t.Fatal(err)
	}

	values := store.Finalize()
	if values["temperature"].Number != 10 {
		t.Errorf("expected latest-by-timestamp value 10, got %v", values["temperature"])
	}
}

func TestInMemoryMetricStoreHistogramTracksMinMeanMax(t *testing.T) {
	store := NewInMemoryMetricStore(0)
	key := mustKey(t, "latency")
	now := time.Now()

	for _, v := range []float64{10, 20, 30} {
		if err := store.Add(NewKeyedMetricReading(key, NewHistogram(v, now))); err != nil {
			t.Fatal(err)
		}
	}

	values := store.Finalize()
	h := values["latency"].Histogram
	if h.Min != 10 || h.Max != 30 || h.Mean != 20 {
		t.Errorf("unexpected histogram: %+v", h)
	}
}

func TestInMemoryMetricStoreTimeWeightedAverageWeighsBySeedThenDelta(t *testing.T) {
	store := NewInMemoryMetricStore(0)
	key := mustKey(t, "cpu")
	now := time.Now()

	// First point seeded by a 10s interval at value 0.
	if err := store.Add(NewKeyedMetricReading(key, NewTimeWeightedAverage(0, now, 10*time.Second))); err != nil {
		t.Fatal(err)
	}
	// Second point 10s later at value 100: weighted by the measured 10s delta.
	if err := store.Add(NewKeyedMetricReading(key, NewTimeWeightedAverage(100, now.Add(10*time.Second), 10*time.Second))); err != nil {
		t.Fatal(err)
	}

	values := store.Finalize()
	// (0*10 + 100*10) / 20 = 50
	if got := values["cpu"].Number; got != 50 {
		t.Errorf("expected weighted average 50, got %v", got)
	}
}

func TestInMemoryMetricStoreEnforcesCardinalityCapOnNewKeysOnly(t *testing.T) {
	store := NewInMemoryMetricStore(1)
	now := time.Now()

	if err := store.Add(NewKeyedMetricReading(mustKey(t, "a"), NewCounter(1, now))); err != nil {
		t.Fatalf("first key should fit: %v", err)
	}
	// Repeated readings for an existing key never hit the cap.
	if err := store.Add(NewKeyedMetricReading(mustKey(t, "a"), NewCounter(1, now))); err != nil {
		t.Fatalf("repeat of existing key should not hit cap: %v", err)
	}
	if err := store.Add(NewKeyedMetricReading(mustKey(t, "b"), NewCounter(1, now))); err != ErrCapacity {
		t.Errorf("expected ErrCapacity for a second distinct key, got %v", err)
	}
}

func TestInMemoryMetricStoreRejectsKindMismatch(t *testing.T) {
	store := NewInMemoryMetricStore(0)
	key := mustKey(t, "requests")
	now := time.Now()

	if err := store.Add(NewKeyedMetricReading(key, NewCounter(1, now))); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(NewKeyedMetricReading(key, NewGauge(1, now))); err != ErrKindMismatch {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}

func TestInMemoryMetricStoreFinalizeClearsState(t *testing.T) {
	store := NewInMemoryMetricStore(0)
	now := time.Now()
	if err := store.Add(NewKeyedMetricReading(mustKey(t, "a"), NewCounter(1, now))); err != nil {
		t.Fatal(err)
	}

	store.Finalize()

	if store.Len() != 0 {
		t.Errorf("expected store to be empty after Finalize, got %d keys", store.Len())
	}
}
