package dictionary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndLookupRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "dict.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Record("chometz", "חמץ", "user-confirmed", now); err != nil {
		t.Fatalf("Record: %v", err)
	}
	e, ok, err := s.Lookup("Chometz")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok || e.Hebrew != "חמץ" {
		t.Errorf("Lookup(Chometz) = (%+v, %v), want hebrew=חמץ", e, ok)
	}
}

func TestRecordIncrementsUsageCount(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "dict.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.Record("chometz", "חמץ", "user-confirmed", now)
	_ = s.Record("chometz", "חמץ", "user-confirmed", now.Add(time.Hour))
	e, _, _ := s.Lookup("chometz")
	if e.UsageCount != 2 {
		t.Errorf("UsageCount = %d, want 2", e.UsageCount)
	}
}

func TestLookupAllGreedyLongestMatch(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "dict.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.Record("bedikas chometz", "בדיקת חמץ", "manual", now)
	_ = s.Record("bedikas", "בדיקת", "manual", now)
	_ = s.Record("chometz", "חמץ", "manual", now)

	matches, err := s.LookupAll("I need help with bedikas chometz tonight")
	if err != nil {
		t.Fatalf("LookupAll: %v", err)
	}
	if len(matches) != 1 || matches[0].English != "bedikas chometz" {
		t.Errorf("LookupAll = %+v, want single two-word match", matches)
	}
}

func TestPersistenceSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.json")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s1 := NewStore(path)
	if err := s1.Record("eruv", "עירוב", "manual", now); err != nil {
		t.Fatalf("Record: %v", err)
	}

	s2 := NewStore(path)
	e, ok, err := s2.Lookup("eruv")
	if err != nil {
		t.Fatalf("Lookup after reload: %v", err)
	}
	if !ok || e.Hebrew != "עירוב" {
		t.Errorf("reloaded Lookup(eruv) = (%+v, %v)", e, ok)
	}
}

func TestPersistedFileIsJSONObjectKeyedByTransliteration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.json")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(path)
	if err := s.Record("Eruv", "עירוב", "manual", now); err != nil {
		t.Fatalf("Record: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading persisted file: %v", err)
	}
	var obj map[string]Entry
	if err := json.Unmarshal(b, &obj); err != nil {
		t.Fatalf("word_dictionary.json is not a JSON object keyed by normalized transliteration: %v", err)
	}
	e, ok := obj["eruv"]
	if !ok || e.Hebrew != "עירוב" {
		t.Errorf("obj[%q] = (%+v, %v), want the eruv entry under its normalized key", "eruv", e, ok)
	}
}

func TestLookupSpansReturnsUnmatchedWordsAlongsideMatches(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "dict.json"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.Record("bedikas chometz", "בדיקת חמץ", "manual", now)

	spans, err := s.LookupSpans("please help with bedikas chometz tonight")
	if err != nil {
		t.Fatalf("LookupSpans: %v", err)
	}
	var matchedWords, unmatchedWords int
	for _, sp := range spans {
		if sp.Entry != nil {
			matchedWords += len(sp.Words)
		} else {
			unmatchedWords += len(sp.Words)
		}
	}
	if matchedWords != 2 {
		t.Errorf("matchedWords = %d, want 2 (bedikas chometz)", matchedWords)
	}
	if unmatchedWords != 4 {
		t.Errorf("unmatchedWords = %d, want 4 (please help with tonight)", unmatchedWords)
	}
}

func TestRecordWritesBackupOfPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.json")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore(path)
	if err := s.Record("a", "א", "manual", now); err != nil {
		t.Fatalf("Record 1: %v", err)
	}
	if err := s.Record("b", "ב", "manual", now.Add(time.Minute)); err != nil {
		t.Fatalf("Record 2: %v", err)
	}
	entries, err := (&Store{Path: filepath.Join(dir, "backups", now.Add(time.Minute).UTC().Format(time.RFC3339)+".json")}).All()
	if err != nil {
		t.Fatalf("reading backup file: %v", err)
	}
	if len(entries) != 1 || entries[0].English != "a" {
		t.Errorf("backup snapshot = %+v, want single entry 'a' from before second Record", entries)
	}
}
