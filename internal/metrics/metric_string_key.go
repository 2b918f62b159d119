// Package metrics implements the metric aggregation and reporting pipeline:
// keyed readings coming off the StatsD listener and the HTTP API are folded
// into a heartbeat report and zero or more named session reports, then
// periodically finalized into envelope entries.
package metrics

import "fmt"

// MetricStringKey is a validated metric or attribute name: 1-128 ASCII
// characters.
type MetricStringKey struct {
	inner string
}

// ParseMetricStringKey validates s and returns a MetricStringKey.
func ParseMetricStringKey(s string) (MetricStringKey, error) {
	if len(s) < 1 || len(s) > 128 {
		return MetricStringKey{}, fmt.Errorf("invalid key: must be between 1 and 128 characters")
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return MetricStringKey{}, fmt.Errorf("invalid key: must be ASCII")
		}
	}
	return MetricStringKey{inner: s}, nil
}

// String returns the underlying key text.
func (k MetricStringKey) String() string { return k.inner }

// MarshalText implements encoding.TextMarshaler so the key serializes as a
// bare string in JSON/YAML.
func (k MetricStringKey) MarshalText() ([]byte, error) {
	return []byte(k.inner), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MetricStringKey) UnmarshalText(text []byte) error {
	parsed, err := ParseMetricStringKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
