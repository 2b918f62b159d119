// Package reboot tracks why the device last restarted and reports the
// reason the first time a new boot is observed. It does not stage the MAR
// entry itself; cmd/memfaultd passes the reason to marstaging.DumpReboot.
package reboot

import "fmt"

// ReasonCode is a well-known reboot cause reported by firmware or the
// kernel, mirroring the hwid-style reset cause registers found on embedded
// platforms.
type ReasonCode uint32

const (
	Unknown ReasonCode = 0x0000

	// Normal resets.
	UserShutdown   ReasonCode = 0x0001
	UserReset      ReasonCode = 0x0002
	FirmwareUpdate ReasonCode = 0x0003
	LowPower       ReasonCode = 0x0004
	DebuggerHalted ReasonCode = 0x0005
	ButtonReset    ReasonCode = 0x0006
	PowerOnReset   ReasonCode = 0x0007
	SoftwareReset  ReasonCode = 0x0008
	DeepSleep      ReasonCode = 0x0009
	PinReset       ReasonCode = 0x000A

	// Error resets.
	UnknownError        ReasonCode = 0x8000
	Assert              ReasonCode = 0x8001
	WatchdogDeprecated  ReasonCode = 0x8002
	BrownOutReset       ReasonCode = 0x8003
	Nmi                 ReasonCode = 0x8004
	HardwareWatchdog    ReasonCode = 0x8005
	SoftwareWatchdog    ReasonCode = 0x8006
	ClockFailure        ReasonCode = 0x8007
	KernelPanic         ReasonCode = 0x8008
	FirmwareUpdateError ReasonCode = 0x8009

	// Arm fault resets.
	BusFault   ReasonCode = 0x9100
	MemFault   ReasonCode = 0x9200
	UsageFault ReasonCode = 0x9300
	HardFault  ReasonCode = 0x9400
	Lockup     ReasonCode = 0x9401
)

var reasonCodeNames = map[ReasonCode]string{
	Unknown: "Unknown",

	UserShutdown:   "UserShutdown",
	UserReset:      "UserReset",
	FirmwareUpdate: "FirmwareUpdate",
	LowPower:       "LowPower",
	DebuggerHalted: "DebuggerHalted",
	ButtonReset:    "ButtonReset",
	PowerOnReset:   "PowerOnReset",
	SoftwareReset:  "SoftwareReset",
	DeepSleep:      "DeepSleep",
	PinReset:       "PinReset",

	UnknownError:        "UnknownError",
	Assert:              "Assert",
	WatchdogDeprecated:  "WatchdogDeprecated",
	BrownOutReset:       "BrownOutReset",
	Nmi:                 "Nmi",
	HardwareWatchdog:    "HardwareWatchdog",
	SoftwareWatchdog:    "SoftwareWatchdog",
	ClockFailure:        "ClockFailure",
	KernelPanic:         "KernelPanic",
	FirmwareUpdateError: "FirmwareUpdateError",

	BusFault:   "BusFault",
	MemFault:   "MemFault",
	UsageFault: "UsageFault",
	HardFault:  "HardFault",
	Lockup:     "Lockup",
}

// knownReasonCode reports whether code is one of the named constants above,
// as opposed to an arbitrary uint32 that merely didn't match one.
func knownReasonCode(code ReasonCode) bool {
	_, ok := reasonCodeNames[code]
	return ok
}

func (c ReasonCode) String() string {
	if name, ok := reasonCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ReasonCode(0x%04x)", uint32(c))
}
