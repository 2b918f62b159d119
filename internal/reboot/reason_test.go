package reboot

import "testing"

func TestParseReasonRecognizesNumericKnownCode(t *testing.T) {
	r, err := ParseReason("32776") // 0x8008 = KernelPanic
	if err != nil {
		t.Fatal(err)
	}
	if r.Custom != nil || r.Code != KernelPanic {
		t.Errorf("expected Code=KernelPanic, got %+v", r)
	}
}

func TestParseReasonFallsBackToUnknownForUnrecognizedNumericCode(t *testing.T) {
	r, err := ParseReason("999999")
	if err != nil {
		t.Fatal(err)
	}
	if r.Custom != nil || r.Code != Unknown {
		t.Errorf("expected Code=Unknown, got %+v", r)
	}
}

func TestParseReasonAcceptsCustomSlug(t *testing.T) {
	r, err := ParseReason("1.0.0-rc2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Custom == nil || r.Custom.Unexpected || r.Custom.Name != "1.0.0-rc2" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestParseReasonHonorsUnexpectedPrefix(t *testing.T) {
	r, err := ParseReason("!watchdog:app-hang")
	if err != nil {
		t.Fatal(err)
	}
	if r.Custom == nil || !r.Custom.Unexpected || r.Custom.Name != "watchdog:app-hang" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestParseReasonRejectsInvalidCustomReason(t *testing.T) {
	if _, err := ParseReason("spaces are invalid"); err == nil {
		t.Error("expected an error for a reason containing spaces")
	}
}

func TestReasonStringRoundTripsCodeAndCustom(t *testing.T) {
	if got := FromCode(HardwareWatchdog).String(); got != "HardwareWatchdog" {
		t.Errorf("got %q", got)
	}
	custom, err := ParseReason("!qemuarm64")
	if err != nil {
		t.Fatal(err)
	}
	if got := custom.String(); got != "!qemuarm64" {
		t.Errorf("got %q", got)
	}
}
