package marstaging

import "fmt"

// DumpReboot stages a reboot-reason entry, reason being the String() form
// of a reboot.Reason (kept as a string here so this package need not import
// internal/reboot; cmd/memfaultd makes the call).
func DumpReboot(stagingDir string, device Device, producer Producer, reason string) error {
	writer, err := NewEntry(stagingDir)
	if err != nil {
		return fmt.Errorf("marstaging: staging reboot reason: %w", err)
	}
	manifest := NewManifest(device, producer, RebootMetadata(reason), nil)
	if err := writer.Commit(manifest); err != nil {
		return fmt.Errorf("marstaging: committing reboot reason: %w", err)
	}
	return nil
}
