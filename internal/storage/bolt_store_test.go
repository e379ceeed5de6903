package storage

import (
	"testing"
	"time"
)

func TestBoltStoreRecordsAndExpiresEntries(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		EntryTTL:        1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(dir+"/ledger/saved.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	if _, found, err := store.Lookup("d1"); err != nil || found {
		t.Fatalf("expected unknown digest, found=%v err=%v", found, err)
	}

	if err := store.Record("d1", "photo.png"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	name, found, err := store.Lookup("d1")
	if err != nil || !found || name != "photo.png" {
		t.Fatalf("expected photo.png recorded, got name=%q found=%v err=%v", name, found, err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	_, found, err = store.Lookup("d1")
	if err != nil {
		t.Fatalf("Lookup after expiry: %v", err)
	}
	if found {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestDecodeEntryRejectsShortValues(t *testing.T) {
	if _, _, ok := decodeEntry([]byte{1, 2, 3}); ok {
		t.Fatalf("expected short value to be rejected")
	}
	exp := time.Unix(1_700_000_000, 0)
	at, name, ok := decodeEntry(encodeEntry(exp, "a.bin"))
	if !ok || !at.Equal(exp) || name != "a.bin" {
		t.Fatalf("decodeEntry = %v %q %v", at, name, ok)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Record("x", "y"); err != nil {
		t.Fatalf("noop store Record: %v", err)
	}
	if _, found, _ := store.Lookup("x"); found {
		t.Fatalf("noop store should never report entries")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}
