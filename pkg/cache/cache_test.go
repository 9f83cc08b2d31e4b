package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("f"), 0); err != nil {
		t.Fatal(err)
	}

	data, hit, _ := c.Get(ctx, "k")
	if !hit || string(data) != "v" {
		t.Errorf("Get(k) = %q, %v", data, hit)
	}
	data[0] = 'x'
	if again, _, _ := c.Get(ctx, "k"); string(again) != "v" {
		t.Errorf("cached value changed through returned slice: %q", again)
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}

	_ = c.Delete(ctx, "forever")
	if _, hit, _ := c.Get(ctx, "forever"); hit {
		t.Error("deleted entry should miss")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = %v, %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte(`{"ok":true}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != `{"ok":true}` {
		t.Errorf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "old", []byte("x"), -time.Hour); err != nil {
		t.Fatal(err)
	}
	// A negative ttl means no expiry.
	if _, hit, _ := c.Get(ctx, "old"); !hit {
		t.Error("entry with non-positive ttl should not expire")
	}

	corrupt := c.path("corrupt")
	if err := os.MkdirAll(filepath.Dir(corrupt), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(corrupt, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "corrupt"); hit {
		t.Error("corrupt entry should miss")
	}
	if _, err := os.Stat(corrupt); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should miss")
	}
}

func TestKey(t *testing.T) {
	k1 := Key("validate", "doc", true)
	k2 := Key("validate", "doc", true)
	k3 := Key("validate", "doc", false)
	if k1 != k2 {
		t.Error("Key should be deterministic")
	}
	if k1 == k3 {
		t.Error("different parts should produce different keys")
	}
	if len(k1) != len("validate:")+64 || k1[:9] != "validate:" {
		t.Errorf("Key = %q, want validate:<sha256>", k1)
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if n := len(Hash([]byte("x"))); n != 64 {
		t.Errorf("Hash length = %d, want 64", n)
	}
}
