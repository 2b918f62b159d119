package metrics

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/memfault/memfaultd/internal/log"
)

// maxDatagramSize is the largest UDP datagram this listener supports.
// Clients must keep individual packets at or under this size; anything
// larger is truncated by the read and will typically fail to parse.
const maxDatagramSize = 1432

// StatsDListener receives StatsD-formatted UDP datagrams and forwards parsed
// readings to a metrics mailbox.
type StatsDListener struct {
	conn *net.UDPConn
}

// ListenStatsD binds addr and starts a goroutine forwarding parsed readings
// to mbox until Close is called.
func ListenStatsD(addr string, mbox MetricsMailbox) (*StatsDListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving statsd bind address %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("binding statsd listener on %s: %w", addr, err)
	}

	listener := &StatsDListener{conn: conn}
	go listener.run(mbox)
	return listener, nil
}

// Close stops the listener.
func (l *StatsDListener) Close() error {
	return l.conn.Close()
}

func (l *StatsDListener) run(mbox MetricsMailbox) {
	logger := log.WithComponent("statsd-listener")
	buf := make([]byte, maxDatagramSize)
	for {
		n, err := l.conn.Read(buf)
		if err != nil {
			if isClosedConnError(err) {
				return
			}
			logger.Warn().Err(err).Msg("statsd socket error")
			continue
		}
		readings := ParseStatsDMessage(string(buf[:n]), func(msg string, _ ...interface{}) { logger.Warn().Msg(msg) })
		if len(readings) == 0 {
			continue
		}
		if err := mbox.SendAndForget(AddMetricsMsg{Readings: readings}); err != nil {
			logger.Warn().Err(err).Msg("failed to deliver statsd readings")
		}
	}
}

func isClosedConnError(err error) bool {
	return strings.Contains(err.Error(), "use of closed network connection")
}

// ParseStatsDMessage splits message on newlines and parses each line as
// "name:value|kind". Lines that fail to parse are dropped and reported
// through onError (if non-nil); they don't abort the rest of the batch.
func ParseStatsDMessage(message string, onError func(msg string, fields ...interface{})) []KeyedMetricReading {
	var readings []KeyedMetricReading
	now := time.Now()
	for _, line := range strings.Split(strings.TrimSpace(message), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		reading, err := parseStatsDLine(line, now)
		if err != nil {
			if onError != nil {
				onError(err.Error())
			}
			continue
		}
		readings = append(readings, reading)
	}
	return readings
}

func parseStatsDLine(line string, now time.Time) (KeyedMetricReading, error) {
	nameValue, kindStr, ok := strings.Cut(line, "|")
	if !ok {
		return KeyedMetricReading{}, fmt.Errorf("malformed statsd line %q: missing |kind suffix", line)
	}
	name, valueStr, ok := strings.Cut(nameValue, ":")
	if !ok {
		return KeyedMetricReading{}, fmt.Errorf("malformed statsd line %q: missing name:value separator", line)
	}

	key, err := ParseMetricStringKey(name)
	if err != nil {
		return KeyedMetricReading{}, fmt.Errorf("statsd line %q: %w", line, err)
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return KeyedMetricReading{}, fmt.Errorf("statsd line %q: invalid value %q: %w", line, valueStr, err)
	}

	var reading MetricReading
	switch kindStr {
	case "c":
		reading = NewCounter(value, now)
	case "g":
		reading = NewGauge(value, now)
	case "h":
		reading = NewHistogram(value, now)
	default:
		return KeyedMetricReading{}, fmt.Errorf("statsd line %q: unsupported metric kind %q", line, kindStr)
	}

	return NewKeyedMetricReading(key, reading), nil
}
