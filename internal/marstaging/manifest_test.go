package marstaging

import (
	"encoding/json"
	"testing"

	"github.com/memfault/memfaultd/internal/metrics"
)

func TestMetadataRoundTripsEachVariant(t *testing.T) {
	cases := []Metadata{
		CoredumpMetadata("myapp", 11, "kernel_selection"),
		LinuxHeartbeatMetadata(map[string]metrics.MetricValue{"cpu_usage_pct": metrics.NumberValue(12.5)}),
		LinuxLogsMetadata(),
		LinuxMetricReportMetadata(SessionReportType("flight"), map[string]metrics.MetricValue{"temp": metrics.NumberValue(22)}),
		AttributesMetadata([]Attribute{{Name: "color", Value: metrics.StringValue("red")}}),
		RebootMetadata("user"),
	}

	for _, original := range cases {
		data, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("marshal %v: %v", original.Kind, err)
		}
		var decoded Metadata
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal %v: %v", original.Kind, err)
		}
		if decoded.Kind != original.Kind {
			t.Errorf("expected kind %v, got %v", original.Kind, decoded.Kind)
		}
	}
}

func TestMetadataUnmarshalRejectsUnknownType(t *testing.T) {
	var m Metadata
	err := json.Unmarshal([]byte(`{"type":"something-else"}`), &m)
	if err == nil {
		t.Error("expected an error for an unrecognized metadata type")
	}
}

func TestSessionReportTypeCarriesName(t *testing.T) {
	rt := SessionReportType("flight")
	if rt.Kind != ReportKindSession || rt.SessionName != "flight" {
		t.Errorf("unexpected report type: %+v", rt)
	}
}

func TestManifestAttachmentNamesIncludesManifestFirst(t *testing.T) {
	m := NewManifest(testDevice(), testProducer(), RebootMetadata("user"),
		[]Attachment{{Name: "a.bin"}, {Name: "b.bin"}})
	names := m.AttachmentNames()
	if len(names) != 3 || names[0] != "manifest.json" || names[1] != "a.bin" || names[2] != "b.bin" {
		t.Errorf("unexpected attachment names: %v", names)
	}
}
