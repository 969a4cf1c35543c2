// Package knownsugyos holds a static table of well-known sugya phrases
// mapped directly to canonical refs and Hebrew labels, letting UNDERSTAND
// shortcut the LLM round trip for frequently asked topics. Matching is
// word-boundary safe: "bedikas chometz" must not match inside "mukas etz".
package knownsugyos

import (
	"regexp"
	"strings"
)

// Entry is one known sugya shortcut: a canonical topic mapping a set of
// recognized transliteration phrases and Hebrew terms to a primary ref.
type Entry struct {
	Phrase      string   // lowercase, space separated transliteration key
	Ref         string
	HebrewLabel string
	// HebrewTerms lists the native-script forms that count as an exact hit
	// for this topic when matched against a DECIPHER result's HebrewTerms,
	// not just the romanized Phrase. Defaults to []string{HebrewLabel} if
	// left empty in the table literal.
	HebrewTerms []string
}

var table = []Entry{
	{Phrase: "bedikas chometz", Ref: "Pesachim 2a", HebrewLabel: "בדיקת חמץ"},
	{Phrase: "bedikat chametz", Ref: "Pesachim 2a", HebrewLabel: "בדיקת חמץ"},
	{Phrase: "muktzeh", Ref: "Shabbat 44a", HebrewLabel: "מוקצה"},
	{Phrase: "chazakah", Ref: "Bava Batra 28a", HebrewLabel: "חזקה"},
	{Phrase: "eruv tavshilin", Ref: "Beitzah 15b", HebrewLabel: "עירוב תבשילין"},
	{Phrase: "shiluach hakein", Ref: "Chullin 138b", HebrewLabel: "שילוח הקן"},
	{Phrase: "kos shel bracha", Ref: "Berachot 51a", HebrewLabel: "כוס של ברכה"},
}

var patterns []*regexp.Regexp

func init() {
	patterns = make([]*regexp.Regexp, len(table))
	for i, e := range table {
		if len(table[i].HebrewTerms) == 0 {
			table[i].HebrewTerms = []string{e.HebrewLabel}
		}
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e.Phrase) + `\b`)
	}
}

// Match returns the known-sugya Entry whose phrase matches query as a
// whole-word sequence, longest phrase first so multi-word entries take
// priority over any shorter entry they happen to contain.
func Match(query string) (Entry, bool) {
	lower := strings.ToLower(query)
	bestIdx := -1
	bestLen := -1
	for i, p := range patterns {
		if p.MatchString(lower) && len(table[i].Phrase) > bestLen {
			bestIdx = i
			bestLen = len(table[i].Phrase)
		}
	}
	if bestIdx < 0 {
		return Entry{}, false
	}
	return table[bestIdx], true
}

// MatchHebrewTerms returns the known-sugya Entry that exactly matches one
// of terms (deciphered Hebrew terms, not raw query text), if any.
func MatchHebrewTerms(terms []string) (Entry, bool) {
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		for i, e := range table {
			for _, ht := range e.HebrewTerms {
				if ht == t {
					return table[i], true
				}
			}
		}
	}
	return Entry{}, false
}

// All returns the full table, for diagnostics.
func All() []Entry {
	out := make([]Entry, len(table))
	copy(out, table)
	return out
}
