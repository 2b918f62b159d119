package marchunks

import "testing"

func TestCRC16XModemMatchesStandardCheckValue(t *testing.T) {
	// The standard CRC-16/XMODEM check value for ASCII "123456789".
	got := CRC16XModem([]byte("123456789"))
	if got != 0x31C3 {
		t.Errorf("expected check value 0x31C3, got 0x%04X", got)
	}
}

func TestCRC16XModemOfEmptyInputIsZero(t *testing.T) {
	if got := CRC16XModem(nil); got != 0 {
		t.Errorf("expected 0, got 0x%04X", got)
	}
}
