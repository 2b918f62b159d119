// Package marstaging implements the on-disk envelope staging area: the
// directory of UUID-named entries, each carrying a manifest plus zero or
// more attachments, that every collector (coredump, metrics, logs, reboot)
// writes into and the uploader reads from.
package marstaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/memfault/memfaultd/internal/metrics"
)

// CurrentSchemaVersion is written into every manifest this daemon produces.
const CurrentSchemaVersion = 1

// Device identifies the originating hardware/software combination.
type Device struct {
	DeviceID        string `json:"device_serial"`
	HardwareVersion string `json:"hardware_version"`
	SoftwareType    string `json:"software_type"`
	SoftwareVersion string `json:"software_version"`
}

// Producer identifies what wrote the manifest.
type Producer struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Attachment is one file alongside manifest.json inside an entry directory.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
}

// ReportKind discriminates the two metric-report metadata shapes.
type ReportKind string

const (
	ReportKindHeartbeat ReportKind = "heartbeat"
	ReportKindSession   ReportKind = "session"
)

// MetricReportType tags a linux-metric-report entry as the recurring
// heartbeat or one named session.
type MetricReportType struct {
	Kind        ReportKind `json:"type"`
	SessionName string     `json:"session_name,omitempty"`
}

// HeartbeatReportType returns the Heartbeat variant.
func HeartbeatReportType() MetricReportType { return MetricReportType{Kind: ReportKindHeartbeat} }

// SessionReportType returns the Session(name) variant.
func SessionReportType(name string) MetricReportType {
	return MetricReportType{Kind: ReportKindSession, SessionName: name}
}

// Attribute is one name/value pair in an attribute-set entry.
type Attribute struct {
	Name  string              `json:"name"`
	Value metrics.MetricValue `json:"value"`
}

type metadataKind string

const (
	kindCoredump          metadataKind = "coredump"
	kindLinuxHeartbeat    metadataKind = "linux-heartbeat"
	kindLinuxLogs         metadataKind = "linux-logs"
	kindLinuxMetricReport metadataKind = "linux-metric-report"
	kindAttributes        metadataKind = "attributes"
	kindReboot            metadataKind = "reboot"
)

// Metadata is the tagged union of every entry kind this daemon produces. The
// active variant is selected by Kind; the others are zero.
type Metadata struct {
	Kind metadataKind

	// coredump
	ProcessName   string
	Signal        int
	CaptureReason string

	// linux-metric-report (also doubles as linux-heartbeat's payload in the
	// original protocol, but we keep them distinct per the manifest schema)
	Metrics    map[string]metrics.MetricValue
	ReportType MetricReportType

	// attributes
	Attributes []Attribute

	// reboot
	RebootReason string
}

// CoredumpMetadata builds the coredump-entry variant.
func CoredumpMetadata(processName string, signal int, captureReason string) Metadata {
	return Metadata{Kind: kindCoredump, ProcessName: processName, Signal: signal, CaptureReason: captureReason}
}

// LinuxHeartbeatMetadata builds the linux-heartbeat variant (a finalized
// heartbeat report, distinct from named sessions).
func LinuxHeartbeatMetadata(values map[string]metrics.MetricValue) Metadata {
	return Metadata{Kind: kindLinuxHeartbeat, Metrics: values, ReportType: HeartbeatReportType()}
}

// LinuxLogsMetadata builds the linux-logs variant; the log file itself is
// carried as an attachment.
func LinuxLogsMetadata() Metadata {
	return Metadata{Kind: kindLinuxLogs}
}

// LinuxMetricReportMetadata builds a named-session metric report variant.
func LinuxMetricReportMetadata(reportType MetricReportType, values map[string]metrics.MetricValue) Metadata {
	return Metadata{Kind: kindLinuxMetricReport, ReportType: reportType, Metrics: values}
}

// AttributesMetadata builds the attribute-set variant.
func AttributesMetadata(attrs []Attribute) Metadata {
	return Metadata{Kind: kindAttributes, Attributes: attrs}
}

// RebootMetadata builds the reboot-reason variant.
func RebootMetadata(reason string) Metadata {
	return Metadata{Kind: kindReboot, RebootReason: reason}
}

type wireMetadata struct {
	Type          metadataKind                   `json:"type"`
	ProcessName   string                         `json:"process_name,omitempty"`
	Signal        int                            `json:"signal,omitempty"`
	CaptureReason string                         `json:"capture_reason,omitempty"`
	Metrics       map[string]metrics.MetricValue `json:"metrics,omitempty"`
	ReportType    *MetricReportType              `json:"report_type,omitempty"`
	Attributes    []Attribute                    `json:"attributes,omitempty"`
	RebootReason  string                         `json:"reboot_reason,omitempty"`
}

// MarshalJSON serializes the active variant only, tagged by "type".
func (m Metadata) MarshalJSON() ([]byte, error) {
	w := wireMetadata{
		Type:          m.Kind,
		ProcessName:   m.ProcessName,
		Signal:        m.Signal,
		CaptureReason: m.CaptureReason,
		Metrics:       m.Metrics,
		Attributes:    m.Attributes,
		RebootReason:  m.RebootReason,
	}
	if m.Kind == kindLinuxHeartbeat || m.Kind == kindLinuxMetricReport {
		reportType := m.ReportType
		w.ReportType = &reportType
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores whichever variant "type" names.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var w wireMetadata
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Metadata{
		Kind:          w.Type,
		ProcessName:   w.ProcessName,
		Signal:        w.Signal,
		CaptureReason: w.CaptureReason,
		Metrics:       w.Metrics,
		Attributes:    w.Attributes,
		RebootReason:  w.RebootReason,
	}
	if w.ReportType != nil {
		m.ReportType = *w.ReportType
	}
	switch w.Type {
	case kindCoredump, kindLinuxHeartbeat, kindLinuxLogs, kindLinuxMetricReport, kindAttributes, kindReboot:
		return nil
	default:
		return fmt.Errorf("marstaging: unknown manifest metadata type %q", w.Type)
	}
}

// Manifest is the JSON document every envelope entry carries as
// manifest.json.
type Manifest struct {
	SchemaVersion int          `json:"schema_version"`
	Device        Device       `json:"device"`
	Producer      Producer     `json:"producer"`
	CapturedDate  time.Time    `json:"captured_date"`
	Metadata      Metadata     `json:"metadata"`
	Attachments   []Attachment `json:"attachments"`
}

// NewManifest builds a manifest stamped with the current time and schema
// version.
func NewManifest(device Device, producer Producer, metadata Metadata, attachments []Attachment) Manifest {
	return Manifest{
		SchemaVersion: CurrentSchemaVersion,
		Device:        device,
		Producer:      producer,
		CapturedDate:  time.Now().UTC(),
		Metadata:      metadata,
		Attachments:   attachments,
	}
}

// AttachmentNames returns the filenames of manifest.json plus every
// attachment, in order.
func (m Manifest) AttachmentNames() []string {
	names := make([]string, 0, len(m.Attachments)+1)
	names = append(names, "manifest.json")
	for _, a := range m.Attachments {
		names = append(names, a.Name)
	}
	return names
}
