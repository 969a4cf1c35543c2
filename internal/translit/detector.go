// Package translit turns a romanized Talmudic term into ranked Hebrew
// candidate spellings. Each detector fires zero or more Pattern matches
// against a token; the Registry combines the patterns a token triggers into
// full-term variants and ranks them by combined confidence, the same
// register-and-combine shape as the teacher's internal/llmtools.Registry
// uses for tool definitions, applied here to transliteration rules instead
// of callable tools.
package translit

import (
	"regexp"
	"strings"
)

// Pattern is one fired detection against a token: which letter(s) an
// English substring should become, and how confident the detector is.
type Pattern struct {
	DetectorName    string
	Position        int
	Length          int
	SuggestedLetter string
	Confidence      float64
}

// Detector recognizes one transliteration convention (e.g. a silent ayin,
// an Aramaic plural ending) and proposes Hebrew substitutions for it.
type Detector struct {
	StableName  string
	Description string
	fn          func(token string) []Pattern
}

func (d Detector) Detect(token string) []Pattern {
	return d.fn(token)
}

var (
	ayinDoubleVowelRe  = regexp.MustCompile(`(?i)(aa+|ee+|ii+|oo+|uu+)`)
	ayinInitialVowelRe = regexp.MustCompile(`(?i)^[aeiou]+`)
	aramaicEndRe       = regexp.MustCompile(`(?i)[aeiou]$`)
	smichutTavRe       = regexp.MustCompile(`(?i)as$`)
	feminineHeyRe      = regexp.MustCompile(`(?i)ah$`)
	finalBetRe         = regexp.MustCompile(`(?i)v$`)
	doubleConsRe       = regexp.MustCompile(`(?i)(bb|cc|dd|ff|gg|hh|jj|kk|ll|mm|nn|pp|qq|rr|ss|tt|vv|ww|xx|zz)`)
	prefixSplitRe      = regexp.MustCompile(`(?i)^(sh|[blmkhv])([a-z]{2,})$`)
)

// prefixLetters maps a recognized construct prefix particle to the Hebrew
// letter it transliterates.
var prefixLetters = map[string]string{
	"b":  "ב",
	"l":  "ל",
	"m":  "מ",
	"k":  "כ",
	"sh": "ש",
	"h":  "ה",
	"v":  "ו",
}

// AyinDetector fires on double-vowel runs (e.g. "maaseh") and word-initial
// vowel sequences (e.g. "erev"), both of which commonly mask a silent ayin.
var AyinDetector = Detector{
	StableName:  "ayin_vowel",
	Description: "double vowels or word-initial vowel sequences that may mask a silent ayin",
	fn: func(token string) []Pattern {
		var out []Pattern
		covered := map[int]bool{}
		for _, loc := range ayinDoubleVowelRe.FindAllStringIndex(token, -1) {
			out = append(out, Pattern{
				DetectorName:    "ayin_vowel",
				Position:        loc[0],
				Length:          loc[1] - loc[0],
				SuggestedLetter: "ע",
				Confidence:      0.3,
			})
			covered[loc[0]] = true
		}
		if loc := ayinInitialVowelRe.FindStringIndex(token); loc != nil && !covered[loc[0]] {
			out = append(out, Pattern{
				DetectorName:    "ayin_vowel",
				Position:        loc[0],
				Length:          loc[1] - loc[0],
				SuggestedLetter: "ע",
				Confidence:      0.25,
			})
		}
		return out
	},
}

// AramaicEndingDetector fires on a terminal vowel (commonly "-a") that
// often reflects a silent trailing aleph (e.g. "gemara" -> "גמרא").
var AramaicEndingDetector = Detector{
	StableName:  "aramaic_ending",
	Description: "terminal vowel likely reflecting a silent trailing aleph",
	fn: func(token string) []Pattern {
		loc := aramaicEndRe.FindStringIndex(token)
		if loc == nil {
			return nil
		}
		return []Pattern{{
			DetectorName:    "aramaic_ending",
			Position:        loc[0],
			Length:          loc[1] - loc[0],
			SuggestedLetter: "א",
			Confidence:      0.55,
		}}
	},
}

// SmichutTavDetector fires on a trailing "-as" that often transliterates a
// construct-state tav (e.g. "chazakas" -> "חזקת").
var SmichutTavDetector = Detector{
	StableName:  "smichut_tav",
	Description: "construct-state tav ending transliterated as -as",
	fn: func(token string) []Pattern {
		loc := smichutTavRe.FindStringIndex(token)
		if loc == nil {
			return nil
		}
		return []Pattern{{
			DetectorName:    "smichut_tav",
			Position:        loc[0],
			Length:          loc[1] - loc[0],
			SuggestedLetter: "ת",
			Confidence:      0.65,
		}}
	},
}

// FeminineHeyDetector fires on a trailing "-ah" typical of a feminine hey.
var FeminineHeyDetector = Detector{
	StableName:  "feminine_hey",
	Description: "feminine noun ending transliterated as -ah",
	fn: func(token string) []Pattern {
		loc := feminineHeyRe.FindStringIndex(token)
		if loc == nil {
			return nil
		}
		return []Pattern{{
			DetectorName:    "feminine_hey",
			Position:        loc[0],
			Length:          loc[1] - loc[0],
			SuggestedLetter: "ה",
			Confidence:      0.6,
		}}
	},
}

// FinalBetDetector fires on a trailing "v" that often transliterates a
// final bet/vet (e.g. "erev" -> "ערב").
var FinalBetDetector = Detector{
	StableName:  "final_bet",
	Description: "trailing v transliterating a final bet",
	fn: func(token string) []Pattern {
		loc := finalBetRe.FindStringIndex(token)
		if loc == nil {
			return nil
		}
		return []Pattern{{
			DetectorName:    "final_bet",
			Position:        loc[0],
			Length:          loc[1] - loc[0],
			SuggestedLetter: "ב",
			Confidence:      0.45,
		}}
	},
}

// DoubleConsonantDetector fires on a doubled consonant, which often
// collapses to a single dagesh-bearing Hebrew letter (e.g. "mukas" vs
// "mukkos" style duplication).
var DoubleConsonantDetector = Detector{
	StableName:  "double_consonant",
	Description: "doubled consonant collapsing to a single Hebrew letter",
	fn: func(token string) []Pattern {
		loc := doubleConsRe.FindStringIndex(token)
		if loc == nil {
			return nil
		}
		return []Pattern{{
			DetectorName:    "double_consonant",
			Position:        loc[0],
			Length:          loc[1] - loc[0],
			SuggestedLetter: string(token[loc[0]]),
			Confidence:      0.4,
		}}
	},
}

// PrefixSplitDetector fires on a leading construct particle (b-, l-, m-,
// k-, sh-, h-, v-) glued to the following word in the romanization (e.g.
// "bedikaschometz" -> prefix "b" + root "edikaschometz").
var PrefixSplitDetector = Detector{
	StableName:  "prefix_split",
	Description: "leading construct particle mapped to its Hebrew prefix letter",
	fn: func(token string) []Pattern {
		m := prefixSplitRe.FindStringSubmatchIndex(token)
		if m == nil {
			return nil
		}
		prefix := strings.ToLower(token[m[2]:m[3]])
		letter, ok := prefixLetters[prefix]
		if !ok {
			return nil
		}
		return []Pattern{{
			DetectorName:    "prefix_split",
			Position:        m[2],
			Length:          m[3] - m[2],
			SuggestedLetter: letter,
			Confidence:      0.5,
		}}
	},
}

// AllDetectors is the fixed set of detectors the Registry runs against
// every token.
var AllDetectors = []Detector{
	AyinDetector,
	AramaicEndingDetector,
	SmichutTavDetector,
	FeminineHeyDetector,
	FinalBetDetector,
	DoubleConsonantDetector,
	PrefixSplitDetector,
}

// exceptions hand-curates ambiguous short tokens that the general detectors
// would otherwise misfire on (too common, too short, or a run of rules
// would disagree). Keyed by lowercase token.
var exceptions = map[string]string{
	"daf":  "דף",
	"amud": "עמוד",
	"din":  "דין",
}

func lookupException(token string) (string, bool) {
	hebrew, ok := exceptions[strings.ToLower(strings.TrimSpace(token))]
	return hebrew, ok
}
