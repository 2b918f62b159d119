package util

import "testing"

func TestAlphanumSlugIsValidAndStartsAlpha(t *testing.T) {
	invalid := []string{"", "Wi-fi Connected"}
	for _, s := range invalid {
		if err := AlphanumSlugIsValidAndStartsAlpha(s, 64); err == nil {
			t.Errorf("AlphanumSlugIsValidAndStartsAlpha(%q) = nil, want error", s)
		}
	}

	valid := []string{"foo", "valid_session-name"}
	for _, s := range valid {
		if err := AlphanumSlugIsValidAndStartsAlpha(s, 64); err != nil {
			t.Errorf("AlphanumSlugIsValidAndStartsAlpha(%q) = %v, want nil", s, err)
		}
	}
}
