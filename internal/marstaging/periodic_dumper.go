package marstaging

import (
	"time"

	"github.com/memfault/memfaultd/internal/log"
	"github.com/memfault/memfaultd/internal/metrics"
	"github.com/memfault/memfaultd/internal/ssf"
)

// PeriodicMetricReportDumper periodically takes the heartbeat report from a
// running ReportManager and stages it as a new MAR entry. It sleeps between
// dumps on its own goroutine rather than riding the scheduler's job heap,
// since a dump is a reply-wait followed by file I/O, not a fire-and-forget
// message delivery.
type PeriodicMetricReportDumper struct {
	stagingDir string
	device     Device
	producer   Producer
	mailbox    ssf.Mailbox[metrics.ReportManager]
	interval   time.Duration
	stop       chan struct{}
}

// NewPeriodicMetricReportDumper builds a dumper that has not yet started.
func NewPeriodicMetricReportDumper(stagingDir string, device Device, producer Producer, mailbox ssf.Mailbox[metrics.ReportManager], interval time.Duration) *PeriodicMetricReportDumper {
	return &PeriodicMetricReportDumper{
		stagingDir: stagingDir,
		device:     device,
		producer:   producer,
		mailbox:    mailbox,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

// Start spawns the dump loop in the background.
func (d *PeriodicMetricReportDumper) Start() {
	go d.loop()
}

// Stop ends the dump loop. It does not wait for an in-flight dump to finish.
func (d *PeriodicMetricReportDumper) Stop() {
	close(d.stop)
}

func (d *PeriodicMetricReportDumper) loop() {
	next := time.Now().Add(d.interval)
	for {
		select {
		case <-d.stop:
			return
		case <-time.After(time.Until(next)):
		}
		next = next.Add(d.interval)
		if err := d.RunOnce(); err != nil {
			log.WithComponent("periodic-metric-dumper").Warn().Err(err).Msg("unable to dump metrics")
		}
	}
}

// RunOnce takes the heartbeat and stages it immediately, independent of the
// loop's schedule. Exported so tests (and a manual trigger) can drive a
// single dump deterministically.
func (d *PeriodicMetricReportDumper) RunOnce() error {
	values, err := metrics.TakeHeartbeat(d.mailbox)
	if err != nil {
		return err
	}
	return DumpHeartbeat(d.stagingDir, d.device, d.producer, values)
}
