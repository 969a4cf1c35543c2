package clarify

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperifyio/sugyasearch/internal/cache"
	"github.com/hyperifyio/sugyasearch/internal/errkind"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

func TestCreateAndGetRoundTrip(t *testing.T) {
	store := NewStore(&cache.Store{Dir: t.TempDir(), TTL: DefaultTTL})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := []types.ClarificationOption{{ID: "a", Label: "Option A"}}

	created, err := store.Create(StagePostDecipher, "eruv", opts, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.QueryID == "" {
		t.Fatal("Create did not assign a query_id")
	}

	got, err := store.Get(created.QueryID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OriginalQuery != "eruv" || got.Stage != StagePostDecipher {
		t.Errorf("Get returned %+v, want original_query=eruv stage=post-decipher", got)
	}
}

func TestGetUnknownQueryIDReturnsNotFound(t *testing.T) {
	store := NewStore(&cache.Store{Dir: t.TempDir(), TTL: DefaultTTL})
	_, err := store.Get("does-not-exist")
	if !errors.Is(err, errkind.NotFound) {
		t.Errorf("Get(unknown) error = %v, want errkind.NotFound", err)
	}
}

func TestExpiredStateReturnsNotFound(t *testing.T) {
	store := NewStore(&cache.Store{Dir: t.TempDir(), TTL: time.Millisecond})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := store.Create(StagePostUnderstand, "some query", nil, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Get(created.QueryID); !errors.Is(err, errkind.NotFound) {
		t.Errorf("Get(expired) error = %v, want errkind.NotFound", err)
	}
}
