package persist

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCursorGetOnUnsetReturnsNotFound(t *testing.T) {
	store := openTestStore(t)
	_, found, err := store.Cursor("journal").Get()
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected an unset cursor to report not found")
	}
}

func TestCursorSetThenGetRoundTrips(t *testing.T) {
	store := openTestStore(t)
	cursor := store.Cursor("journal")

	if err := cursor.Set("s=deadbeef"); err != nil {
		t.Fatal(err)
	}

	value, found, err := cursor.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !found || value != "s=deadbeef" {
		t.Errorf("expected (s=deadbeef, true), got (%q, %v)", value, found)
	}
}

func TestCursorDeleteClearsValue(t *testing.T) {
	store := openTestStore(t)
	cursor := store.Cursor("journal")

	if err := cursor.Set("pos-1"); err != nil {
		t.Fatal(err)
	}
	if err := cursor.Delete(); err != nil {
		t.Fatal(err)
	}

	_, found, err := cursor.Get()
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected cursor to be unset after Delete")
	}
}

func TestCursorsWithDifferentNamesAreIndependent(t *testing.T) {
	store := openTestStore(t)
	if err := store.Cursor("a").Set("1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Cursor("b").Set("2"); err != nil {
		t.Fatal(err)
	}

	va, _, err := store.Cursor("a").Get()
	if err != nil {
		t.Fatal(err)
	}
	vb, _, err := store.Cursor("b").Get()
	if err != nil {
		t.Fatal(err)
	}
	if va != "1" || vb != "2" {
		t.Errorf("expected independent values, got a=%q b=%q", va, vb)
	}
}
