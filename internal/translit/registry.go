package translit

import (
	"sort"
)

// Candidate is one ranked Hebrew spelling proposed for a token.
type Candidate struct {
	Hebrew     string
	Confidence float64
	RulesFired []string
}

// Registry runs the fixed detector set against tokens and combines fired
// patterns into ranked candidate spellings.
type Registry struct {
	Detectors  []Detector
	MaxVariants int
}

// NewRegistry builds a Registry over the standard detector set.
func NewRegistry() *Registry {
	return &Registry{Detectors: AllDetectors, MaxVariants: 15}
}

func (r *Registry) maxVariants() int {
	if r.MaxVariants <= 0 {
		return 15
	}
	return r.MaxVariants
}

// Candidates returns ranked Hebrew spelling candidates for token, most
// confident first. If an exception entry exists it is returned alone with
// confidence 1.0, since hand-curated mappings override rule combination.
func (r *Registry) Candidates(token string) []Candidate {
	if hebrew, ok := lookupException(token); ok {
		return []Candidate{{Hebrew: hebrew, Confidence: 1.0, RulesFired: []string{"exception"}}}
	}

	var fired []Pattern
	for _, d := range r.Detectors {
		fired = append(fired, d.Detect(token)...)
	}
	if len(fired) == 0 {
		return nil
	}

	variants := combine(token, fired, r.maxVariants())
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Confidence > variants[j].Confidence
	})
	if len(variants) > r.maxVariants() {
		variants = variants[:r.maxVariants()]
	}
	return variants
}

// combine takes the Cartesian product of "apply this pattern" / "skip this
// pattern" across all fired patterns, builds the resulting Hebrew-letter
// overlay string for each combination, and scores it by the product of its
// applied patterns' confidences. Combinations with zero applied patterns
// are skipped (that's just the untransliterated token, not a candidate).
func combine(token string, fired []Pattern, cap int) []Candidate {
	n := len(fired)
	total := 1 << uint(n)
	if total > 4096 {
		total = 4096 // defensive cap on pattern explosion; never hit in practice
	}

	type combo struct {
		confidence float64
		names      []string
		letters    string
	}
	var combos []combo
	for mask := 1; mask < total; mask++ {
		conf := 1.0
		var names []string
		var applied []Pattern
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) == 0 {
				continue
			}
			p := fired[i]
			conf *= p.Confidence
			names = append(names, p.DetectorName)
			if p.SuggestedLetter != "" {
				applied = append(applied, p)
			}
		}
		if len(applied) == 0 {
			continue
		}
		// Letters must be concatenated in the order they occur in the
		// source token, not in detector-registration order.
		sort.SliceStable(applied, func(i, j int) bool {
			return applied[i].Position < applied[j].Position
		})
		letters := make([]string, len(applied))
		for i, p := range applied {
			letters[i] = p.SuggestedLetter
		}
		combos = append(combos, combo{confidence: conf, names: names, letters: joinLetters(letters)})
		if len(combos) >= cap*4 {
			break // overgenerate a bit before ranking/truncating, never unbounded
		}
	}

	seen := map[string]bool{}
	out := make([]Candidate, 0, len(combos))
	for _, c := range combos {
		if seen[c.letters] {
			continue
		}
		seen[c.letters] = true
		out = append(out, Candidate{Hebrew: c.letters, Confidence: c.confidence, RulesFired: c.names})
	}
	return out
}

func joinLetters(letters []string) string {
	out := ""
	for _, l := range letters {
		out += l
	}
	return out
}
