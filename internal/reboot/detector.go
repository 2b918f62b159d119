package reboot

import (
	"os"
	"strings"

	"github.com/memfault/memfaultd/internal/persist"
)

const bootIDCursorName = "reboot.boot-id"

// Detector notices when the kernel's boot ID has changed since the last
// recorded observation, meaning the device has rebooted since memfaultd
// last ran.
type Detector struct {
	bootIDPath     string
	reasonFilePath string
	cursor         *persist.Cursor
}

// NewDetector builds a Detector backed by store's persisted cursor state.
func NewDetector(store *persist.Store, bootIDPath, reasonFilePath string) *Detector {
	return &Detector{
		bootIDPath:     bootIDPath,
		reasonFilePath: reasonFilePath,
		cursor:         store.Cursor(bootIDCursorName),
	}
}

// CheckForNewBoot reads the current boot ID and compares it against the
// last one this daemon observed. If they differ (including the first-ever
// run, where none is recorded), it reads and clears the reboot-reason file,
// parses the reason, records the new boot ID, and returns (reason, true).
// Otherwise it returns (Reason{}, false) and touches nothing.
func (d *Detector) CheckForNewBoot() (Reason, bool, error) {
	currentBootID, err := d.readBootID()
	if err != nil {
		return Reason{}, false, err
	}

	lastBootID, found, err := d.cursor.Get()
	if err != nil {
		return Reason{}, false, err
	}
	if found && lastBootID == currentBootID {
		return Reason{}, false, nil
	}

	reason, err := d.consumeReasonFile()
	if err != nil {
		return Reason{}, false, err
	}
	if err := d.cursor.Set(currentBootID); err != nil {
		return Reason{}, false, err
	}
	return reason, true, nil
}

func (d *Detector) readBootID() (string, error) {
	data, err := os.ReadFile(d.bootIDPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// consumeReasonFile reads and then removes the reboot-reason file an
// application or bootloader may have written before the restart. A
// missing or empty file is not an error: the reason is simply Unknown.
func (d *Detector) consumeReasonFile() (Reason, error) {
	if d.reasonFilePath == "" {
		return FromCode(Unknown), nil
	}
	data, err := os.ReadFile(d.reasonFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return FromCode(Unknown), nil
		}
		return Reason{}, err
	}
	_ = os.Remove(d.reasonFilePath)

	text := strings.TrimSpace(string(data))
	if text == "" {
		return FromCode(Unknown), nil
	}
	return ParseReason(text)
}
