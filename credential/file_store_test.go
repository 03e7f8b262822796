package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T) (*FileStore, string, string) {
	t.Helper()
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials")
	keyPath := filepath.Join(dir, "session.key")
	store, err := NewFileStore(FileConfig{Path: credPath, KeyPath: keyPath}, nil)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store, credPath, keyPath
}

func testPair() *Pair {
	return &Pair{
		AccessToken:  "access-token-value",
		RefreshToken: "refresh-token-value",
		TokenKind:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, _, _ := newTestFileStore(t)
	ctx := context.Background()

	if got, err := store.Get(ctx); err != nil || got != nil {
		t.Fatalf("empty store Get = (%v, %v), want (nil, nil)", got, err)
	}

	want := testPair()
	if err := store.Set(ctx, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.HasSecrets() {
		t.Fatal("expected complete pair after round trip")
	}
}

func TestFileStoreClear(t *testing.T) {
	store, credPath, _ := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, testPair()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, _ := store.Get(ctx); got != nil {
		t.Fatalf("expected absent after Clear, got %+v", got)
	}
	if _, err := os.Stat(credPath); !os.IsNotExist(err) {
		t.Fatal("credential file still present after Clear")
	}

	// Clearing an empty store is not an error.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear on empty store failed: %v", err)
	}
}

func TestFileStoreCorruptionTreatedAsAbsent(t *testing.T) {
	store, credPath, _ := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, testPair()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := os.WriteFile(credPath, []byte("scrambled-bytes"), 0o600); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get on corrupted entry must not fail, got %v", err)
	}
	if got != nil {
		t.Fatalf("corrupted entry reported present: %+v", got)
	}
	if _, err := os.Stat(credPath); !os.IsNotExist(err) {
		t.Fatal("corrupted entry was not proactively cleared")
	}
}

func TestFileStoreTamperedCiphertext(t *testing.T) {
	store, credPath, _ := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, testPair()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	data, err := os.ReadFile(credPath)
	if err != nil {
		t.Fatalf("read sealed file: %v", err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(credPath, data, 0o600); err != nil {
		t.Fatalf("write tampered file: %v", err)
	}

	if got, err := store.Get(ctx); err != nil || got != nil {
		t.Fatalf("tampered entry Get = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestFileStoreMissingSessionKey(t *testing.T) {
	store, credPath, keyPath := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, testPair()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Simulate a new session: the key did not survive.
	if err := os.Remove(keyPath); err != nil {
		t.Fatalf("remove key: %v", err)
	}

	if got, err := store.Get(ctx); err != nil || got != nil {
		t.Fatalf("Get without session key = (%v, %v), want (nil, nil)", got, err)
	}
	if _, err := os.Stat(credPath); !os.IsNotExist(err) {
		t.Fatal("unrecoverable entry was not cleared")
	}
}

func TestExpiredMetadataOnly(t *testing.T) {
	if !Expired(nil, 0) {
		t.Fatal("nil pair must report expired")
	}
	if !Expired(&Pair{TokenKind: "Bearer"}, 0) {
		t.Fatal("pair without expiry metadata must report expired")
	}

	fresh := &Pair{TokenKind: "Bearer", ExpiresAt: time.Now().Add(time.Hour)}
	if Expired(fresh, 5*time.Minute) {
		t.Fatal("fresh metadata pair reported expired")
	}
	if !Expired(fresh, 2*time.Hour) {
		t.Fatal("skew larger than remaining lifetime must report expired")
	}

	stale := &Pair{TokenKind: "Bearer", ExpiresAt: time.Now().Add(-time.Minute)}
	if !Expired(stale, 0) {
		t.Fatal("stale metadata pair reported fresh")
	}
}
