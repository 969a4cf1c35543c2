// Package corpusclient wraps the external corpus HTTP API: search, fetch
// text, related links, and name lookup. Every operation is cache-backed and
// retried with exponential backoff on transient failures, the same shape as
// the teacher's internal/fetch.Client, generalized from "fetch an HTML page"
// to "call one of four corpus JSON endpoints".
package corpusclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sugyasearch/internal/cache"
	"github.com/hyperifyio/sugyasearch/internal/errkind"
)

// Client wraps the corpus HTTP API behind a bounded-retry, cache-backed
// surface. The zero value is not usable; construct with New.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	Cache       *cache.Store
	MaxRetries  int
	PerRequestTimeout time.Duration
}

// New builds a Client with sane defaults for MaxRetries and timeout when
// the caller leaves them zero.
func New(baseURL string, httpClient *http.Client, store *cache.Store) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		BaseURL:           strings.TrimRight(baseURL, "/"),
		HTTPClient:        httpClient,
		Cache:             store,
		MaxRetries:        3,
		PerRequestTimeout: 15 * time.Second,
	}
}

func (c *Client) maxRetries() int {
	if c.MaxRetries <= 0 {
		return 3
	}
	return c.MaxRetries
}

// Search queries the corpus for hebrewTerm, restricted by optional filters
// (a JSON-serializable map forwarded verbatim as the filters query param).
func (c *Client) Search(ctx context.Context, hebrewTerm string, size int, filters map[string]any) (SearchResponse, error) {
	if size <= 0 {
		size = 20
	}
	normalized := normalizeArg(hebrewTerm)
	filterKey := ""
	if len(filters) > 0 {
		if b, err := json.Marshal(filters); err == nil {
			filterKey = string(b)
		}
	}
	key := cache.KeyFrom("search", normalized, strconv.Itoa(size), filterKey)
	if raw, ok, _ := c.getFromCache(key); ok {
		var resp SearchResponse
		if err := json.Unmarshal(raw, &resp); err == nil {
			return resp, nil
		}
	}

	q := url.Values{}
	q.Set("query", hebrewTerm)
	q.Set("type", "text")
	q.Set("size", strconv.Itoa(size))
	if filterKey != "" {
		q.Set("filters", filterKey)
	}
	endpoint := c.BaseURL + "/search-wrapper?" + q.Encode()

	raw, err := c.doGET(ctx, endpoint)
	if err != nil {
		return SearchResponse{}, err
	}
	var parsed rawSearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return SearchResponse{}, fmt.Errorf("corpusclient: decode search response: %w", errkind.BadInput)
	}
	resp := normalizeSearch(parsed)
	if b, err := json.Marshal(resp); err == nil {
		c.saveToCache(key, b)
	}
	return resp, nil
}

func normalizeSearch(parsed rawSearchResponse) SearchResponse {
	byCategory := map[string]int{}
	byTractate := map[string]int{}
	topRefSeen := map[string]bool{}
	var topRefs []string
	var samples []SampleHit
	for _, h := range parsed.Hits.Hits {
		for _, cat := range h.Source.Categories {
			byCategory[cat]++
		}
		if tractate := tractateOf(h.Source.Ref); tractate != "" {
			byTractate[tractate]++
		}
		if h.Source.Ref != "" && !topRefSeen[h.Source.Ref] {
			topRefSeen[h.Source.Ref] = true
			topRefs = append(topRefs, h.Source.Ref)
		}
		if len(samples) < 5 {
			samples = append(samples, SampleHit{
				Ref:         h.Source.Ref,
				HebrewText:  h.Source.HebrewText,
				EnglishText: h.Source.EnglishText,
			})
		}
	}
	sort.Strings(topRefs)
	if len(topRefs) > 10 {
		topRefs = topRefs[:10]
	}
	return SearchResponse{
		TotalHits:  parsed.Hits.Total.Int(),
		ByCategory: byCategory,
		ByTractate: byTractate,
		TopRefs:    topRefs,
		SampleHits: samples,
	}
}

// tractateOf extracts a leading tractate name from a canonical ref like
// "Pesachim 4b" or "Shulchan Arukh, Orach Chaim 1:1".
func tractateOf(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if idx := strings.Index(ref, ","); idx > 0 {
		return strings.TrimSpace(ref[:idx])
	}
	fields := strings.Fields(ref)
	for i, f := range fields {
		if startsWithDigit(f) {
			if i == 0 {
				return ""
			}
			return strings.Join(fields[:i], " ")
		}
	}
	return ref
}

func startsWithDigit(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= '0' && s[0] <= '9'
}

// GetText fetches the full Hebrew/English text for ref.
func (c *Client) GetText(ctx context.Context, ref string) (TextResponse, error) {
	normalized := normalizeArg(ref)
	key := cache.KeyFrom("text", normalized)
	if raw, ok, _ := c.getFromCache(key); ok {
		var resp TextResponse
		if err := json.Unmarshal(raw, &resp); err == nil {
			return resp, nil
		}
	}

	endpoint := c.BaseURL + "/texts/" + url.PathEscape(ref)
	raw, err := c.doGET(ctx, endpoint)
	if err != nil {
		return TextResponse{}, err
	}
	var parsed rawTextResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return TextResponse{}, fmt.Errorf("corpusclient: decode text response: %w", errkind.BadInput)
	}
	resp := TextResponse{
		Hebrew:       flattenTextField(parsed.He),
		English:      flattenTextField(parsed.Text),
		CanonicalRef: pickNonEmpty(parsed.Ref, ref),
	}
	if b, err := json.Marshal(resp); err == nil {
		c.saveToCache(key, b)
	}
	return resp, nil
}

// GetRelated fetches commentaries and links for ref.
func (c *Client) GetRelated(ctx context.Context, ref string) (RelatedResponse, error) {
	normalized := normalizeArg(ref)
	key := cache.KeyFrom("related", normalized)
	if raw, ok, _ := c.getFromCache(key); ok {
		var resp RelatedResponse
		if err := json.Unmarshal(raw, &resp); err == nil {
			return resp, nil
		}
	}

	endpoint := c.BaseURL + "/related/" + url.PathEscape(ref)
	raw, err := c.doGET(ctx, endpoint)
	if err != nil {
		return RelatedResponse{}, err
	}
	var parsed rawRelatedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return RelatedResponse{}, fmt.Errorf("corpusclient: decode related response: %w", errkind.BadInput)
	}
	resp := RelatedResponse{}
	for _, cEntry := range parsed.Commentary {
		resp.Commentaries = append(resp.Commentaries, RelatedRef{Ref: cEntry.Ref, Category: cEntry.Category, Author: cEntry.Collective})
	}
	for _, l := range parsed.Links {
		resp.Links = append(resp.Links, RelatedRef{Ref: l.Ref})
	}
	if b, err := json.Marshal(resp); err == nil {
		c.saveToCache(key, b)
	}
	return resp, nil
}

// NameLookup disambiguates a single token against the corpus index.
func (c *Client) NameLookup(ctx context.Context, token string) ([]Disambiguation, error) {
	normalized := normalizeArg(token)
	key := cache.KeyFrom("name", normalized)
	if raw, ok, _ := c.getFromCache(key); ok {
		var resp []Disambiguation
		if err := json.Unmarshal(raw, &resp); err == nil {
			return resp, nil
		}
	}

	endpoint := c.BaseURL + "/name/" + url.PathEscape(token)
	raw, err := c.doGET(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var resp []Disambiguation
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("corpusclient: decode name response: %w", errkind.BadInput)
	}
	if b, err := json.Marshal(resp); err == nil {
		c.saveToCache(key, b)
	}
	return resp, nil
}

func (c *Client) getFromCache(key string) ([]byte, bool, error) {
	if c.Cache == nil {
		return nil, false, nil
	}
	return c.Cache.Get(key)
}

func (c *Client) saveToCache(key string, value []byte) {
	if c.Cache == nil {
		return
	}
	_ = c.Cache.Set(key, value)
}

// doGET issues a GET with bounded retry on transient failures: network
// errors and 5xx responses retry with exponential backoff up to
// c.maxRetries(); a 4xx response is a typed NotFound/BadInput, never
// retried.
func (c *Client) doGET(ctx context.Context, endpoint string) ([]byte, error) {
	attempts := c.maxRetries() + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		body, status, err := c.tryOnce(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		if status >= 400 && status < 500 {
			if status == http.StatusNotFound {
				return nil, fmt.Errorf("corpusclient: %s: %w", endpoint, errkind.NotFound)
			}
			return nil, fmt.Errorf("corpusclient: %s: status %d: %w", endpoint, status, errkind.BadInput)
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		backoff := time.Duration(1<<uint(attempt)) * 200 * time.Millisecond
		log.Debug().Str("endpoint", endpoint).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("corpus request retry")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("corpusclient: %s: %w: %v", endpoint, errkind.Transient, lastErr)
}

func (c *Client) tryOnce(ctx context.Context, endpoint string) ([]byte, int, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if c.PerRequestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, resp.StatusCode, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	body, err := readAll(resp)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func normalizeArg(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
