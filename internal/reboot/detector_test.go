package reboot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/memfault/memfaultd/internal/persist"
)

func openTestStore(t *testing.T) *persist.Store {
	t.Helper()
	store, err := persist.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCheckForNewBootReportsNewOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	bootIDPath := filepath.Join(dir, "boot_id")
	writeFile(t, bootIDPath, "boot-aaa\n")

	detector := NewDetector(openTestStore(t), bootIDPath, "")
	reason, isNew, err := detector.CheckForNewBoot()
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Fatal("expected the first observation to count as a new boot")
	}
	if reason.Code != Unknown {
		t.Errorf("expected Unknown reason with no reason file configured, got %+v", reason)
	}
}

func TestCheckForNewBootIsQuietOnRepeatedCallsWithSameBootID(t *testing.T) {
	dir := t.TempDir()
	bootIDPath := filepath.Join(dir, "boot_id")
	writeFile(t, bootIDPath, "boot-aaa")

	store := openTestStore(t)
	detector := NewDetector(store, bootIDPath, "")

	if _, isNew, err := detector.CheckForNewBoot(); err != nil || !isNew {
		t.Fatalf("expected first call to report new boot, isNew=%v err=%v", isNew, err)
	}
	if _, isNew, err := detector.CheckForNewBoot(); err != nil || isNew {
		t.Fatalf("expected second call with unchanged boot id to report no new boot, isNew=%v err=%v", isNew, err)
	}
}

func TestCheckForNewBootDetectsChangedBootID(t *testing.T) {
	dir := t.TempDir()
	bootIDPath := filepath.Join(dir, "boot_id")
	store := openTestStore(t)

	writeFile(t, bootIDPath, "boot-aaa")
	detector := NewDetector(store, bootIDPath, "")
	if _, isNew, err := detector.CheckForNewBoot(); err != nil || !isNew {
		t.Fatalf("expected first call to report new boot, isNew=%v err=%v", isNew, err)
	}

	writeFile(t, bootIDPath, "boot-bbb")
	if _, isNew, err := detector.CheckForNewBoot(); err != nil || !isNew {
		t.Fatalf("expected a changed boot id to report new boot, isNew=%v err=%v", isNew, err)
	}
}

func TestCheckForNewBootParsesAndClearsReasonFile(t *testing.T) {
	dir := t.TempDir()
	bootIDPath := filepath.Join(dir, "boot_id")
	reasonPath := filepath.Join(dir, "last_reboot_reason")
	writeFile(t, bootIDPath, "boot-aaa")
	writeFile(t, reasonPath, "!watchdog:app-hang\n")

	detector := NewDetector(openTestStore(t), bootIDPath, reasonPath)
	reason, isNew, err := detector.CheckForNewBoot()
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Fatal("expected a new boot")
	}
	if reason.Custom == nil || !reason.Custom.Unexpected || reason.Custom.Name != "watchdog:app-hang" {
		t.Errorf("unexpected reason: %+v", reason)
	}
	if _, err := os.Stat(reasonPath); !os.IsNotExist(err) {
		t.Error("expected the reason file to be removed after being consumed")
	}
}

func TestCheckForNewBootDefaultsToUnknownWhenReasonFileMissing(t *testing.T) {
	dir := t.TempDir()
	bootIDPath := filepath.Join(dir, "boot_id")
	writeFile(t, bootIDPath, "boot-aaa")

	detector := NewDetector(openTestStore(t), bootIDPath, filepath.Join(dir, "does-not-exist"))
	reason, isNew, err := detector.CheckForNewBoot()
	if err != nil {
		t.Fatal(err)
	}
	if !isNew || reason.Code != Unknown {
		t.Errorf("expected (Unknown, true), got (%+v, %v)", reason, isNew)
	}
}
