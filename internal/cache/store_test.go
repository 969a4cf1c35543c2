package cache

import (
	"os"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	s := &Store{Dir: t.TempDir(), TTL: time.Hour}
	if err := s.Set("k1", []byte(`"v1"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get("k1")
	if err != nil || !ok {
		t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
	}
	if string(got) != `"v1"` {
		t.Fatalf("Get = %s, want \"v1\"", got)
	}
}

func TestStoreExpiry(t *testing.T) {
	s := &Store{Dir: t.TempDir(), TTL: time.Millisecond}
	if err := s.Set("k1", []byte(`"v1"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	_, ok, err := s.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestStoreDisabled(t *testing.T) {
	s := &Store{Dir: t.TempDir(), Disabled: true}
	if err := s.Set("k1", []byte(`"v1"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, ok, _ := s.Get("k1")
	if ok {
		t.Fatal("disabled store should never hit")
	}
}

func TestStoreCorruptEntryEvicted(t *testing.T) {
	dir := t.TempDir()
	s := &Store{Dir: dir}
	if err := s.Set("k1", []byte(`"v1"`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Corrupt the file directly.
	path := dir + "/" + keyToFilename("k1")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("corrupt write: %v", err)
	}
	_, ok, err := s.Get("k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected corrupt entry to miss")
	}
}

func TestStoreStatsHitRate(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	_, _, _ = s.Get("missing")
	_ = s.Set("k1", []byte(`1`))
	_, _, _ = s.Get("k1")
	stats := s.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Saves != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.HitRate != 0.5 {
		t.Fatalf("hit rate = %v, want 0.5", stats.HitRate)
	}
	if stats.Entries != 1 {
		t.Fatalf("entries = %d, want 1", stats.Entries)
	}
}

func TestStoreClear(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	_ = s.Set("a", []byte(`1`))
	_ = s.Set("b", []byte(`2`))
	n, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("Clear removed %d, want 2", n)
	}
	if _, ok, _ := s.Get("a"); ok {
		t.Fatal("expected empty store after Clear")
	}
}
