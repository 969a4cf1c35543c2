// Package archaeology runs SEARCH: Locate candidate refs from the corpus,
// Validate them with a secondary LLM pass guarded by independent corpus
// lookups (never trusting an LLM-proposed ref on its own say-so), Trickle
// outward to related commentaries, and Fetch+Group the resulting texts by
// source level. The LLM-plus-independently-checked-fallback shape mirrors
// the teacher's internal/verify.Verifier; the merge/dedupe/cap shape
// mirrors internal/aggregate and internal/select.
package archaeology

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/sugyasearch/internal/authors"
	"github.com/hyperifyio/sugyasearch/internal/cache"
	"github.com/hyperifyio/sugyasearch/internal/corpusclient"
	"github.com/hyperifyio/sugyasearch/internal/grouping"
	"github.com/hyperifyio/sugyasearch/internal/llm"
	"github.com/hyperifyio/sugyasearch/internal/types"
)

// FetchConcurrency bounds simultaneous text/related fetches.
const FetchConcurrency = 8

// CorpusAPI is the subset of corpusclient.Client archaeology needs.
type CorpusAPI interface {
	Search(ctx context.Context, hebrewTerm string, size int, filters map[string]any) (corpusclient.SearchResponse, error)
	GetText(ctx context.Context, ref string) (corpusclient.TextResponse, error)
	GetRelated(ctx context.Context, ref string) (corpusclient.RelatedResponse, error)
}

// Pipeline runs the four SEARCH phases over a corpus client and an
// optional LLM for candidate validation.
type Pipeline struct {
	Corpus CorpusAPI
	LLM    llm.Client
	Model  string
	Cache  *cache.Store
}

func NewPipeline(corpus CorpusAPI, llmClient llm.Client, model string, store *cache.Store) *Pipeline {
	return &Pipeline{Corpus: corpus, LLM: llmClient, Model: model, Cache: store}
}

// Run executes Locate, Validate, Trickle, and Fetch&Group for strategy and
// returns the assembled SearchResult.
func (p *Pipeline) Run(ctx context.Context, originalQuery string, hebrewTerms []string, strategy types.Strategy) (types.SearchResult, error) {
	located, err := p.locate(ctx, hebrewTerms, strategy)
	if err != nil {
		return types.SearchResult{}, err
	}

	validated, err := p.validate(ctx, originalQuery, located, strategy)
	if err != nil {
		return types.SearchResult{}, err
	}

	trickled, err := p.trickle(ctx, validated, strategy)
	if err != nil {
		return types.SearchResult{}, err
	}

	sources, err := p.fetchAndGroup(ctx, trickled, strategy)
	if err != nil {
		return types.SearchResult{}, err
	}

	sources = grouping.Dedupe(sources)
	grouping.SortDeterministic(sources)

	result := types.SearchResult{
		OriginalQuery:  originalQuery,
		HebrewTerms:    hebrewTerms,
		Sources:        sources,
		SourcesByLevel: grouping.ByLevel(sources),
		TotalSources:   len(sources),
		LevelsPresent:  grouping.LevelsPresent(sources),
		Interpretation: strategy.Reasoning,
		Confidence:     strategy.Confidence,
	}
	if len(strategy.ComparisonTerms) > 0 {
		result.SourcesByTerm = grouping.GroupByComparisonTerm(sources, strategy.ComparisonTerms)
	}
	if len(sources) > 0 {
		result.PrimaryRef = sources[0].Ref
	}
	return result, nil
}

// codifiedWorksFilter restricts LOCATE's broad-scan/trickle corpus search to
// the later codified works (Shulchan Aruch and Tur families) so the simanim
// that actually rule on a topic surface instead of Gemara/commentary noise.
var codifiedWorksFilter = map[string]any{
	"categories": []string{"Shulchan Arukh", "Shulchan Aruch", "Arbaah Turim", "Tur"},
}

// locate gathers candidate refs: strategy.PrimarySources directly when
// present, plus a corpus search per Hebrew term restricted to codified
// works for broad-scan/trickle strategies. Results are ordered by
// classical-source priority (Talmud > Rishonim > codes > modern works) to
// avoid commentary noise; hit density is not weighed, and refs of equal
// priority keep their discovery order. Each matched simaan's sample text
// is scanned for cited Talmud references.
func (p *Pipeline) locate(ctx context.Context, hebrewTerms []string, strategy types.Strategy) ([]string, error) {
	seen := map[string]bool{}
	var refs []string
	add := func(ref string) {
		if ref == "" || seen[ref] {
			return
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	for _, r := range strategy.PrimarySources {
		add(r)
	}
	if strategy.FetchStrategy == types.FetchStrategyDirectRef && len(refs) > 0 {
		return refs, nil
	}
	if p.Corpus == nil {
		return refs, nil
	}
	for _, term := range hebrewTerms {
		resp, err := p.Corpus.Search(ctx, term, 20, codifiedWorksFilter)
		if err != nil {
			continue // one failed term search degrades coverage, not the whole LOCATE
		}
		for _, ref := range resp.TopRefs {
			add(ref)
		}
		for _, hit := range resp.SampleHits {
			for _, cited := range extractTalmudRefs(hit.HebrewText + " " + hit.EnglishText) {
				add(cited)
			}
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return classicalSourcePriority(refs[i]) > classicalSourcePriority(refs[j])
	})
	return refs, nil
}

// classicalSourcePriority ranks a ref by classical-source priority: Talmud
// outranks Rishonim, which outrank the halachic codes, which outrank
// everything else.
func classicalSourcePriority(ref string) int {
	switch levelForRef(ref) {
	case types.LevelGemara, types.LevelMishnah:
		return 3
	case types.LevelRashi, types.LevelTosfos, types.LevelRishonim:
		return 2
	case types.LevelRambam, types.LevelTur, types.LevelShulchanAruch:
		return 1
	default:
		return 0
	}
}

// talmudRefCanonical maps a lowercase tractate name to its canonical
// display form, used to normalize refs extracted from simaan sample text.
var talmudRefCanonical = map[string]string{
	"pesachim": "Pesachim", "shabbat": "Shabbat", "berachot": "Berachot",
	"bava batra": "Bava Batra", "bava kamma": "Bava Kamma", "bava metzia": "Bava Metzia",
	"chullin": "Chullin", "beitzah": "Beitzah", "eruvin": "Eruvin", "sukkah": "Sukkah",
}

var talmudRefRe = regexp.MustCompile(`(?i)\b(pesachim|shabbat|berachot|bava batra|bava kamma|bava metzia|chullin|beitzah|eruvin|sukkah)\s+(\d{1,3}[ab])\b`)

// extractTalmudRefs scans simaan text for cited Talmud references like
// "Pesachim 2a", returning them in canonical "Tractate Nb" form.
func extractTalmudRefs(text string) []string {
	var out []string
	for _, m := range talmudRefRe.FindAllStringSubmatch(text, -1) {
		tractate, ok := talmudRefCanonical[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		out = append(out, tractate+" "+strings.ToLower(m[2]))
	}
	return out
}

// validate runs an optional LLM pass proposing which located refs are
// genuinely on-topic, then independently re-checks every LLM-touched ref
// against the corpus before trusting it: an LLM-proposed ref that fails
// independent validation is silently dropped, never surfaced.
func (p *Pipeline) validate(ctx context.Context, query string, located []string, strategy types.Strategy) ([]string, error) {
	if p.LLM == nil || p.Model == "" || len(located) == 0 {
		return located, nil
	}

	proposed, err := p.validateViaLLM(ctx, query, located, strategy)
	if err != nil || len(proposed) == 0 {
		return located, nil // deterministic fallback: keep LOCATE's refs as-is
	}

	return p.filterHallucinations(ctx, proposed, located)
}

func (p *Pipeline) validateViaLLM(ctx context.Context, query string, located []string, strategy types.Strategy) ([]string, error) {
	system := "You are validating candidate Talmudic source references for relevance. Respond with strict JSON only: {\"relevant_refs\": string[]}. Only include refs from the candidate list that are genuinely on-topic; never invent a ref not in the candidate list."
	user := fmt.Sprintf("Query: %s\nReasoning: %s\nCandidate refs: %s", query, strategy.Reasoning, strings.Join(located, "; "))

	var cacheKey string
	if p.Cache != nil {
		cacheKey = cache.KeyFrom(p.Model, system, user)
		if raw, ok, _ := p.Cache.Get(cacheKey); ok {
			var out struct {
				RelevantRefs []string `json:"relevant_refs"`
			}
			if err := json.Unmarshal(raw, &out); err == nil {
				return out.RelevantRefs, nil
			}
		}
	}

	resp, err := p.LLM.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.0,
		N:           1,
	})
	if err != nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("archaeology: validate llm call failed")
	}
	var out struct {
		RelevantRefs []string `json:"relevant_refs"`
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return nil, err
	}
	if p.Cache != nil && cacheKey != "" {
		if b, merr := json.Marshal(out); merr == nil {
			_ = p.Cache.Set(cacheKey, b)
		}
	}
	return out.RelevantRefs, nil
}

// filterHallucinations keeps only proposed refs that were actually present
// in the locate candidate set (the hallucination guard) and independently
// resolve in the corpus.
func (p *Pipeline) filterHallucinations(ctx context.Context, proposed []string, located []string) ([]string, error) {
	inLocate := map[string]bool{}
	for _, r := range located {
		inLocate[r] = true
	}

	candidates := make([]string, 0, len(proposed))
	for _, r := range proposed {
		if inLocate[r] {
			candidates = append(candidates, r)
		}
	}
	if p.Corpus == nil {
		return candidates, nil
	}

	verified := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(FetchConcurrency)
	for i, ref := range candidates {
		i, ref := i, ref
		g.Go(func() error {
			if _, err := p.Corpus.GetText(gctx, ref); err == nil {
				verified[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(candidates))
	for i, ok := range verified {
		if ok {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

// defaultTrickleAuthorKeys is the fallback Authors-KB filter applied when
// strategy.TargetAuthors is empty: the two most universally cited
// commentaries, so TRICKLE doesn't pull in every tangential gloss by
// default.
var defaultTrickleAuthorKeys = map[string]bool{"rashi": true, "tosfos": true}

// trickle expands the validated ref set outward to related commentaries,
// bucketed and capped per source level (types.DepthCap applied per level,
// not as one flat global cutoff), filtered against the Authors KB, and
// for halachic queries walked upward into the codes that rule on the
// anchor refs.
func (p *Pipeline) trickle(ctx context.Context, refs []string, strategy types.Strategy) ([]string, error) {
	if p.Corpus == nil || strategy.FetchStrategy == types.FetchStrategyDirectRef {
		return refs, nil
	}
	levelCap := types.DepthCap(strategy.Depth)

	seen := map[string]bool{}
	counts := map[types.SourceLevel]int{}
	var out []string
	add := func(ref string) bool {
		if ref == "" || seen[ref] {
			return false
		}
		level := levelForRef(ref)
		if counts[level] >= levelCap {
			return false
		}
		seen[ref] = true
		counts[level]++
		out = append(out, ref)
		return true
	}
	for _, r := range refs {
		add(r)
	}

	related := make([][]corpusclient.RelatedRef, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(FetchConcurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			resp, err := p.Corpus.GetRelated(gctx, ref)
			if err != nil {
				return nil
			}
			related[i] = append(resp.Commentaries, resp.Links...)
			return nil
		})
	}
	_ = g.Wait()

	targetKeys := authorKeySet(strategy.TargetAuthors)
	for _, rr := range related {
		for _, r := range rr {
			if !authorAllowed(r, targetKeys) {
				continue
			}
			add(r.Ref)
		}
	}

	if isHalachicQuery(strategy) {
		walked, err := p.walkUpToCodes(ctx, refs)
		if err == nil {
			for _, ref := range walked {
				add(ref)
			}
		}
	}

	return out, nil
}

// authorKeySet resolves strategy.TargetAuthors surface forms to catalog
// keys; an empty/unresolvable input yields nil, signaling "use the default
// set" to authorAllowed.
func authorKeySet(targetAuthors []string) map[string]bool {
	if len(targetAuthors) == 0 {
		return nil
	}
	keys := map[string]bool{}
	for _, t := range targetAuthors {
		if a, ok := authors.Matches(t); ok {
			keys[a.Key] = true
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return keys
}

// authorAllowed reports whether a related ref passes the Authors-KB
// filter: an explicit target set is honored exactly; otherwise a related
// ref with no recognizable author at all (e.g. a bare cross-reference) is
// let through, and one with a recognized author falls back to
// defaultTrickleAuthorKeys.
func authorAllowed(r corpusclient.RelatedRef, targetKeys map[string]bool) bool {
	candidate := r.Author
	if candidate == "" {
		candidate = r.Ref
	}
	a, ok := authors.Matches(candidate)
	if !ok {
		if keys := authors.DetectInText(candidate); len(keys) > 0 {
			a, ok = authors.ByKey(keys[0])
		}
	}
	if !ok {
		return true
	}
	if targetKeys != nil {
		return targetKeys[a.Key]
	}
	return defaultTrickleAuthorKeys[a.Key]
}

// isHalachicQuery reports whether strategy reflects a halachic-practice
// question, the case TRICKLE also walks upward into the codes for.
func isHalachicQuery(strategy types.Strategy) bool {
	return strategy.QueryType == types.QueryTypeHalachicPractice
}

// walkUpToCodes fetches each anchor ref's related set and keeps only the
// Rambam/Shulchan Aruch entries that cite it, for halachic queries where
// the ruling codes matter more than the raw sugya.
func (p *Pipeline) walkUpToCodes(ctx context.Context, anchors []string) ([]string, error) {
	related := make([][]corpusclient.RelatedRef, len(anchors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(FetchConcurrency)
	for i, ref := range anchors {
		i, ref := i, ref
		g.Go(func() error {
			resp, err := p.Corpus.GetRelated(gctx, ref)
			if err != nil {
				return nil
			}
			related[i] = append(resp.Commentaries, resp.Links...)
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for _, rr := range related {
		for _, r := range rr {
			level := levelForRef(r.Ref)
			if level == types.LevelRambam || level == types.LevelShulchanAruch {
				out = append(out, r.Ref)
			}
		}
	}
	return out, nil
}

// fetchAndGroup fetches text for each ref (bounded concurrency), assigns a
// source level per ref, and caps how many sources land at any single
// level so one prolific commentator can't crowd out the rest.
func (p *Pipeline) fetchAndGroup(ctx context.Context, refs []string, strategy types.Strategy) ([]types.Source, error) {
	if p.Corpus == nil {
		return nil, nil
	}
	sources := make([]types.Source, len(refs))
	ok := make([]bool, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(FetchConcurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			text, err := p.Corpus.GetText(gctx, ref)
			if err != nil {
				return nil // a single unresolvable ref drops silently, not the whole fetch
			}
			level := levelForRef(ref)
			sources[i] = types.Source{
				Ref:       pickNonEmpty(text.CanonicalRef, ref),
				Level:     level,
				Hebrew:    text.Hebrew,
				English:   text.English,
				CharCount: len(text.Hebrew) + len(text.English),
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var out []types.Source
	for i, good := range ok {
		if good {
			out = append(out, sources[i])
		}
	}
	return capPerLevel(out, perLevelCap(strategy.Depth)), nil
}

// perLevelCap delegates to types.DepthCap so FETCH&GROUP enforces the same
// per-level cap TRICKLE already bucketed against.
func perLevelCap(depth types.Depth) int {
	return types.DepthCap(depth)
}

// capPerLevel keeps at most cap sources per level, preserving input order
// (which is already ref-discovery order) so earlier-discovered sources at
// a crowded level win over later ones.
func capPerLevel(sources []types.Source, perLevel int) []types.Source {
	counts := map[types.SourceLevel]int{}
	out := make([]types.Source, 0, len(sources))
	for _, s := range sources {
		if counts[s.Level] >= perLevel {
			continue
		}
		counts[s.Level]++
		out = append(out, s)
	}
	return out
}

// levelForRef assigns a SourceLevel heuristically from the ref's leading
// label, the same label-sniffing approach authors.DetectInText uses for
// author names, applied here to the small set of source-level labels.
func levelForRef(ref string) types.SourceLevel {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "rashi"):
		return types.LevelRashi
	case strings.HasPrefix(lower, "tosafot"), strings.HasPrefix(lower, "tosfos"):
		return types.LevelTosfos
	case strings.HasPrefix(lower, "mishneh torah"), strings.HasPrefix(lower, "rambam"):
		return types.LevelRambam
	case strings.HasPrefix(lower, "shulchan arukh"), strings.HasPrefix(lower, "shulchan aruch"):
		return types.LevelShulchanAruch
	case strings.HasPrefix(lower, "arbaah turim"), strings.HasPrefix(lower, "tur"):
		return types.LevelTur
	case strings.HasPrefix(lower, "mishnah berurah"), strings.HasPrefix(lower, "biur hagra"):
		return types.LevelAcharonim
	case strings.HasPrefix(lower, "ramban"), strings.HasPrefix(lower, "rashba"), strings.HasPrefix(lower, "ritva"), strings.HasPrefix(lower, "rosh"):
		return types.LevelRishonim
	case len(authors.DetectInText(ref)) > 0:
		return types.LevelNoseiKeilim
	case looksLikeMishnahRef(lower):
		return types.LevelMishnah
	case looksLikeChumashRef(lower):
		return types.LevelChumash
	case looksLikeGemaraRef(lower):
		return types.LevelGemara
	default:
		return types.LevelOther
	}
}

var gemaraTractates = []string{"pesachim", "shabbat", "berachot", "bava batra", "bava kamma", "bava metzia", "chullin", "beitzah", "eruvin", "sukkah"}
var chumashBooks = []string{"genesis", "exodus", "leviticus", "numbers", "deuteronomy"}

func looksLikeGemaraRef(lower string) bool {
	for _, t := range gemaraTractates {
		if strings.HasPrefix(lower, t) {
			return true
		}
	}
	return false
}

func looksLikeChumashRef(lower string) bool {
	for _, b := range chumashBooks {
		if strings.HasPrefix(lower, b) {
			return true
		}
	}
	return false
}

func looksLikeMishnahRef(lower string) bool {
	return strings.HasPrefix(lower, "mishnah ")
}

func pickNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
