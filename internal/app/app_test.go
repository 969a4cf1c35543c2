package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/sugyasearch/internal/types"
)

// fakeCorpus serves a minimal corpus API: one search hit, its text, and an
// empty related list, enough to drive Search end to end without an LLM.
func fakeCorpus(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search-wrapper", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": 1,
				"hits": [
					{"_source": {"ref": "Pesachim 4b", "he_text": "חמץ", "en_text": "chametz", "categories": ["Talmud"]}}
				]
			}
		}`))
	})
	mux.HandleFunc("/texts/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"he": "חמץ טקסט", "text": "chametz text", "ref": "Pesachim 4b"}`))
	})
	mux.HandleFunc("/related/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"commentary": [], "links": []}`))
	})
	return httptest.NewServer(mux)
}

func newTestApp(t *testing.T, corpusURL string) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		CorpusBaseURL:  corpusURL,
		CacheDir:       filepath.Join(dir, "cache"),
		DictionaryPath: filepath.Join(dir, "dictionary.json"),
	}
	ApplyEnvToConfig(&cfg)
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestSearchEndToEndWithoutLLM(t *testing.T) {
	srv := fakeCorpus(t)
	defer srv.Close()
	a := newTestApp(t, srv.URL)

	decipherResult, err := a.Decipher(context.Background(), "חמץ")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if !decipherResult.Success || decipherResult.Method != types.MethodPassthrough {
		t.Fatalf("expected pure-Hebrew passthrough, got %+v", decipherResult)
	}

	result, err := a.Search(context.Background(), "חמץ", decipherResult)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.TotalSources != 1 {
		t.Fatalf("expected 1 source, got %d: %+v", result.TotalSources, result.Sources)
	}
	if result.Sources[0].Ref != "Pesachim 4b" {
		t.Fatalf("unexpected source ref %q", result.Sources[0].Ref)
	}
}

func TestSearchWithNoCorpusHitsRequestsClarification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search-wrapper", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": {"total": 0, "hits": []}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	a := newTestApp(t, srv.URL)

	decipherResult, err := a.Decipher(context.Background(), "קשקוש")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}

	result, err := a.Search(context.Background(), "קשקוש", decipherResult)
	if err != nil {
		t.Fatalf("expected a normal return with a clarification payload, got error %v", err)
	}
	if !strings.Contains(result.ClarificationPrompt, "No sources found") {
		t.Fatalf("unexpected clarification prompt in %+v", result)
	}
	if !result.NeedsClarification {
		t.Fatalf("expected zero-hit fallback to request clarification, got %+v", result)
	}
}

func TestConfirmDecipherPersistsToDictionary(t *testing.T) {
	a := newTestApp(t, "http://unused.invalid")

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := a.ConfirmDecipher("bedikas chometz", "בדיקת חמץ", now); err != nil {
		t.Fatalf("ConfirmDecipher: %v", err)
	}

	result, err := a.Decipher(context.Background(), "bedikas chometz")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	if !result.Success || len(result.HebrewTerms) == 0 || result.HebrewTerms[0] != "בדיקת חמץ" {
		t.Fatalf("expected confirmed mapping to resolve on next lookup, got %+v", result)
	}
}

func TestResumeClarificationUnknownQueryIDFails(t *testing.T) {
	a := newTestApp(t, "http://unused.invalid")
	if _, err := a.ResumeClarification(context.Background(), "not-a-real-id", "opt-1"); err == nil {
		t.Fatalf("expected error for unknown query_id")
	}
}

func TestSuspendAndResumeClarification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search-wrapper", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": {"total": 0, "hits": []}}`))
	})
	zeroHitSrv := httptest.NewServer(mux)
	defer zeroHitSrv.Close()
	a := newTestApp(t, zeroHitSrv.URL)

	decipherResult, err := a.Decipher(context.Background(), "קשקוש")
	if err != nil {
		t.Fatalf("Decipher: %v", err)
	}
	result, err := a.Search(context.Background(), "קשקוש", decipherResult)
	if err != nil {
		t.Fatalf("expected zero-hit search to suspend for clarification without error, got %v", err)
	}
	if result.ClarificationQueryID == "" {
		t.Fatalf("expected a suspended clarification query_id, got %+v", result)
	}

	// fallbackStrategy's zero-hit branch sets no ClarificationOptions, so
	// resuming falls back to re-running the original query, hits the same
	// zero-hit corpus again and suspends once more.
	resumed, rerr := a.ResumeClarification(context.Background(), result.ClarificationQueryID, "opt-1")
	if rerr != nil {
		t.Fatalf("expected resumed search to suspend again without error, got %v", rerr)
	}
	if !strings.Contains(resumed.ClarificationPrompt, "No sources found") {
		t.Fatalf("unexpected resumed result: %+v", resumed)
	}
}
