package corpusclient

import (
	"encoding/json"
)

// TotalHits tolerates the corpus API's inconsistent shape for hits.total:
// sometimes a bare int, sometimes {"value": int}.
type TotalHits int

func (t *TotalHits) UnmarshalJSON(b []byte) error {
	var asInt int
	if err := json.Unmarshal(b, &asInt); err == nil {
		*t = TotalHits(asInt)
		return nil
	}
	var wrapped struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*t = TotalHits(wrapped.Value)
	return nil
}

func (t TotalHits) Int() int { return int(t) }

// rawSearchResponse mirrors the corpus /search-wrapper envelope.
type rawSearchResponse struct {
	Hits struct {
		Total TotalHits `json:"total"`
		Hits  []struct {
			Source struct {
				Ref        string   `json:"ref"`
				HebrewText string   `json:"he_text"`
				EnglishText string  `json:"en_text"`
				Categories []string `json:"categories"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SampleHit is one representative search hit surfaced for corpus profiling.
type SampleHit struct {
	Ref        string `json:"ref"`
	HebrewText string `json:"hebrew_text"`
	EnglishText string `json:"english_text"`
}

// SearchResponse is the normalized result of a corpus search.
type SearchResponse struct {
	TotalHits   int              `json:"total_hits"`
	ByCategory  map[string]int   `json:"by_category"`
	ByTractate  map[string]int   `json:"by_tractate"`
	TopRefs     []string         `json:"top_refs"`
	SampleHits  []SampleHit      `json:"sample_hits"`
}

// rawTextResponse mirrors the corpus /texts/<ref> envelope. He may be a
// string, a list of strings, or a nested list of strings.
type rawTextResponse struct {
	He   json.RawMessage `json:"he"`
	Text json.RawMessage `json:"text"`
	Ref  string          `json:"ref"`
}

// TextResponse is the normalized result of fetching a single ref's text.
type TextResponse struct {
	Hebrew       string `json:"hebrew"`
	English      string `json:"english"`
	CanonicalRef string `json:"canonical_ref"`
}

// rawRelatedResponse mirrors the corpus /related/<ref> envelope.
type rawRelatedResponse struct {
	Commentary []struct {
		Ref        string `json:"ref"`
		Category   string `json:"category"`
		Collective string `json:"collectiveTitle"`
	} `json:"commentary"`
	Links []struct {
		Ref string `json:"ref"`
	} `json:"links"`
}

// RelatedResponse is the normalized result of fetching a ref's related
// commentaries and links.
type RelatedResponse struct {
	Commentaries []RelatedRef `json:"commentaries"`
	Links        []RelatedRef `json:"links"`
}

// RelatedRef is one related reference plus the label the corpus reported
// for it, used by TRICKLE to match against the Authors KB.
type RelatedRef struct {
	Ref      string `json:"ref"`
	Category string `json:"category,omitempty"`
	Author   string `json:"author,omitempty"`
}

// Disambiguation is one candidate returned by name_lookup.
type Disambiguation struct {
	Token string `json:"token"`
	Ref   string `json:"ref"`
	Title string `json:"title"`
}
