package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReadingKind discriminates how a reading is merged into a report.
type ReadingKind int

const (
	// KindTimeWeightedAverage weighs each value by the time elapsed since
	// the previous point (or a seed interval, for the first point).
	KindTimeWeightedAverage ReadingKind = iota
	// KindCounter sums values within a report.
	KindCounter
	// KindGauge keeps the most recent value by timestamp.
	KindGauge
	// KindHistogram tracks running min/mean/max.
	KindHistogram
)

// MetricReading is one observation of a metric. Exactly one Kind-specific
// meaning applies to Value/Timestamp/Interval at a time, mirroring a tagged
// union.
type MetricReading struct {
	Kind      ReadingKind
	Value     float64
	Timestamp time.Time
	// Interval only applies to KindTimeWeightedAverage: the nominal period
	// to weigh the first point by, before a second point establishes a
	// measured delta.
	Interval time.Duration
}

// NewTimeWeightedAverage builds a KindTimeWeightedAverage reading.
func NewTimeWeightedAverage(value float64, timestamp time.Time, interval time.Duration) MetricReading {
	return MetricReading{Kind: KindTimeWeightedAverage, Value: value, Timestamp: timestamp, Interval: interval}
}

// NewCounter builds a KindCounter reading.
func NewCounter(value float64, timestamp time.Time) MetricReading {
	return MetricReading{Kind: KindCounter, Value: value, Timestamp: timestamp}
}

// NewGauge builds a KindGauge reading.
func NewGauge(value float64, timestamp time.Time) MetricReading {
	return MetricReading{Kind: KindGauge, Value: value, Timestamp: timestamp}
}

// NewHistogram builds a KindHistogram reading.
func NewHistogram(value float64, timestamp time.Time) MetricReading {
	return MetricReading{Kind: KindHistogram, Value: value, Timestamp: timestamp}
}

var readingKindNames = map[ReadingKind]string{
	KindTimeWeightedAverage: "time_weighted_average",
	KindCounter:             "counter",
	KindGauge:               "gauge",
	KindHistogram:           "histogram",
}

func parseReadingKindName(s string) (ReadingKind, error) {
	for kind, name := range readingKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown metric reading kind %q", s)
}

type wireMetricReading struct {
	Kind      string    `json:"kind"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Interval  *string   `json:"interval,omitempty"`
}

// MarshalJSON serializes Kind as a name and Interval as a duration string,
// present only for KindTimeWeightedAverage. Used by the HTTP API's session
// start/end request bodies.
func (m MetricReading) MarshalJSON() ([]byte, error) {
	w := wireMetricReading{Kind: readingKindNames[m.Kind], Value: m.Value, Timestamp: m.Timestamp}
	if m.Kind == KindTimeWeightedAverage {
		interval := m.Interval.String()
		w.Interval = &interval
	}
	return json.Marshal(w)
}

// UnmarshalJSON reverses MarshalJSON.
func (m *MetricReading) UnmarshalJSON(data []byte) error {
	var w wireMetricReading
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := parseReadingKindName(w.Kind)
	if err != nil {
		return err
	}
	reading := MetricReading{Kind: kind, Value: w.Value, Timestamp: w.Timestamp}
	if kind == KindTimeWeightedAverage {
		if w.Interval == nil {
			return fmt.Errorf("metric reading kind %q requires an interval", w.Kind)
		}
		interval, err := time.ParseDuration(*w.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", *w.Interval, err)
		}
		reading.Interval = interval
	}
	*m = reading
	return nil
}

// KeyedMetricReading pairs a reading with the metric key it belongs to.
type KeyedMetricReading struct {
	Name  MetricStringKey `json:"name"`
	Value MetricReading   `json:"value"`
}

// NewKeyedMetricReading constructs a KeyedMetricReading.
func NewKeyedMetricReading(name MetricStringKey, value MetricReading) KeyedMetricReading {
	return KeyedMetricReading{Name: name, Value: value}
}

// ParseGaugeReading parses "KEY=VALUE" into a KeyedMetricReading with a
// Gauge reading timestamped now. This is the format accepted by the
// command-line and HTTP single-reading ingestion points.
func ParseGaugeReading(s string) (KeyedMetricReading, error) {
	key, valueStr, ok := strings.Cut(s, "=")
	if !ok {
		return KeyedMetricReading{}, fmt.Errorf("gauge metric reading should be specified as KEY=VALUE")
	}

	metricKey, err := ParseMetricStringKey(key)
	if err != nil {
		return KeyedMetricReading{}, err
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return KeyedMetricReading{}, fmt.Errorf("invalid value %s: %w", valueStr, err)
	}

	return NewKeyedMetricReading(metricKey, NewGauge(value, time.Now())), nil
}
