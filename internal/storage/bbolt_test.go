package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/illarion/dehook/internal/settings"
	bolt "go.etcd.io/bbolt"
)

func openTestBolt(t *testing.T) *Bolt {
	t.Helper()
	db, err := OpenBolt(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAndInitialize(t *testing.T) {
	ctx := context.Background()
	db := openTestBolt(t)

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh database should not be initialized")
	}

	seeded, err := db.Initialize(ctx)
	if err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if !seeded {
		t.Error("First Initialize should seed defaults")
	}

	initialized, err = db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}

	if _, err := db.Created(); err != nil {
		t.Errorf("Failed to get created time: %v", err)
	}
}

func TestInitializeKeepsExistingSettings(t *testing.T) {
	ctx := context.Background()
	db := openTestBolt(t)

	s := settings.Default()
	s.Enabled = false
	if err := db.Write(ctx, s); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	seeded, err := db.Initialize(ctx)
	if err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if seeded {
		t.Error("Initialize must not overwrite an existing record")
	}

	got, err := db.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if got.Enabled {
		t.Error("Existing record was replaced by defaults")
	}
}

func TestReadWithoutWriteReturnsDefaults(t *testing.T) {
	db := openTestBolt(t)

	got, err := db.Read(context.Background())
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if *got != *settings.Default() {
		t.Errorf("Read on empty database = %+v, want defaults", got)
	}
}

func TestWriteRead(t *testing.T) {
	ctx := context.Background()
	db := openTestBolt(t)

	hash := "blob"
	s := settings.Default()
	s.Protection.PasswordHash = &hash
	s.Protection.Unlock(time.UnixMilli(1_700_000_000_000))
	s.Hiding.HideComments = true

	if err := db.Write(ctx, s); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	got, err := db.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if got.Protection.PasswordHash == nil || *got.Protection.PasswordHash != hash {
		t.Errorf("PasswordHash = %v, want %q", got.Protection.PasswordHash, hash)
	}
	if got.Protection.LastUnlockTime == nil || *got.Protection.LastUnlockTime != 1_700_000_000_000 {
		t.Errorf("LastUnlockTime = %v, want 1700000000000", got.Protection.LastUnlockTime)
	}
	if got.Protection.IsLocked {
		t.Error("IsLocked should be false")
	}
	if !got.Hiding.HideComments {
		t.Error("HideComments should be true")
	}

	if _, err := db.Modified(); err != nil {
		t.Errorf("Failed to get modified time: %v", err)
	}
}

func TestReadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	db := openTestBolt(t)
	if _, err := db.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	if err := db.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(SettingsBucket).Put(settingsKey, []byte("{not json"))
	}); err != nil {
		t.Fatalf("Failed to corrupt record: %v", err)
	}

	if _, err := db.Read(ctx); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Read error = %v, want ErrCorrupt", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	db, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	s := settings.Default()
	s.Protection.AutoRevertMinutes = 5
	if err := db.Write(ctx, s); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	db.Close()

	db, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	got, err := db.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if got.Protection.AutoRevertMinutes != 5 {
		t.Errorf("AutoRevertMinutes = %d, want 5", got.Protection.AutoRevertMinutes)
	}
}

func TestSecondOpenTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	db, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if second, err := OpenBolt(path); err == nil {
		second.Close()
		t.Error("Second open of a locked database should fail")
	}
}

func TestCompact(t *testing.T) {
	ctx := context.Background()
	db := openTestBolt(t)
	if _, err := db.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	s := settings.Default()
	for i := 1; i <= 200; i++ {
		s.Protection.AutoRevertMinutes = i
		if err := db.Write(ctx, s); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Failed to compact: %v", err)
	}

	got, err := db.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read after compact: %v", err)
	}
	if got.Protection.AutoRevertMinutes != 200 {
		t.Errorf("AutoRevertMinutes = %d, want 200", got.Protection.AutoRevertMinutes)
	}
	for _, leftover := range []string{".compact", ".backup"} {
		if _, err := os.Stat(db.Path() + leftover); !os.IsNotExist(err) {
			t.Errorf("Leftover file %s after compact", leftover)
		}
	}
}
