// Package authors holds the static catalog of halachic authors/commentators
// the system recognizes, the same static-catalog-plus-lookup shape as the
// teacher's internal/template.GetProfile switch, generalized from "report
// profile by type string" to "author record by any known surface form".
package authors

import (
	"fmt"
	"strings"
)

// Author is one entry in the known-authors catalog.
type Author struct {
	Key         string   // stable lowercase key, e.g. "rashi"
	CanonicalName string
	NativeName  string   // primary name in native (Hebrew) script
	SurfaceForms []string // accepted spellings/aliases, lowercase, including native-script acronyms
	CorpusAuthorRef string // ref prefix the corpus uses for this author's works
}

var catalog = []Author{
	{Key: "rashi", CanonicalName: "Rashi", NativeName: "רש״י", SurfaceForms: []string{"rashi", "רש״י", "רשי"}, CorpusAuthorRef: "Rashi"},
	{Key: "tosfos", CanonicalName: "Tosafos", NativeName: "תוספות", SurfaceForms: []string{"tosfos", "tosafot", "tosafos", "tosphos", "תוספות"}, CorpusAuthorRef: "Tosafot"},
	{Key: "rambam", CanonicalName: "Rambam", NativeName: "רמב״ם", SurfaceForms: []string{"rambam", "maimonides", "רמב״ם", "רמבם"}, CorpusAuthorRef: "Mishneh Torah"},
	{Key: "ramban", CanonicalName: "Ramban", NativeName: "רמב״ן", SurfaceForms: []string{"ramban", "nachmanides", "רמב״ן", "רמבן"}, CorpusAuthorRef: "Ramban"},
	{Key: "rashba", CanonicalName: "Rashba", NativeName: "רשב״א", SurfaceForms: []string{"rashba", "רשב״א", "רשבא"}, CorpusAuthorRef: "Rashba"},
	{Key: "ritva", CanonicalName: "Ritva", NativeName: "ריטב״א", SurfaceForms: []string{"ritva", "ריטב״א", "ריטבא"}, CorpusAuthorRef: "Ritva"},
	{Key: "rosh", CanonicalName: "Rosh", NativeName: "רא״ש", SurfaceForms: []string{"rosh", "asher ben yechiel", "רא״ש", "ראש"}, CorpusAuthorRef: "Rosh"},
	{Key: "tur", CanonicalName: "Tur", NativeName: "טור", SurfaceForms: []string{"tur", "baal haturim", "טור"}, CorpusAuthorRef: "Arbaah Turim"},
	{Key: "shulchan-aruch", CanonicalName: "Shulchan Aruch", NativeName: "שולחן ערוך", SurfaceForms: []string{"shulchan aruch", "shulchan arukh", "caro", "yosef karo", "שולחן ערוך"}, CorpusAuthorRef: "Shulchan Arukh"},
	{Key: "rema", CanonicalName: "Rema", NativeName: "רמ״א", SurfaceForms: []string{"rema", "moshe isserles", "רמ״א", "רמא"}, CorpusAuthorRef: "Mapah"},
	{Key: "mishnah-berurah", CanonicalName: "Mishnah Berurah", NativeName: "משנה ברורה", SurfaceForms: []string{"mishnah berurah", "chofetz chaim", "משנה ברורה"}, CorpusAuthorRef: "Mishnah Berurah"},
	{Key: "vilna-gaon", CanonicalName: "Vilna Gaon", NativeName: "הגר״א", SurfaceForms: []string{"vilna gaon", "gra", "gaon of vilna", "הגר״א", "הגרא"}, CorpusAuthorRef: "Biur HaGra"},
}

var bySurfaceForm map[string]Author
var byKey map[string]Author

// quoteStripper removes the punctuation marks used in Hebrew acronyms
// (ASCII and native geresh/gershayim) so "רש\"י", "רש״י" and "רשי" all
// normalize to the same lookup key.
var quoteStripper = strings.NewReplacer(
	"\"", "",
	"'", "",
	"׳", "", // geresh
	"״", "", // gershayim
)

func normalizeSurfaceForm(s string) string {
	return strings.ToLower(quoteStripper.Replace(strings.TrimSpace(s)))
}

func init() {
	bySurfaceForm = make(map[string]Author)
	byKey = make(map[string]Author)
	for _, a := range catalog {
		if _, exists := byKey[a.Key]; exists {
			panic(fmt.Sprintf("authors: duplicate key %q in catalog", a.Key))
		}
		byKey[a.Key] = a
		for _, sf := range a.SurfaceForms {
			norm := normalizeSurfaceForm(sf)
			if existing, exists := bySurfaceForm[norm]; exists && existing.Key != a.Key {
				panic(fmt.Sprintf("authors: surface form %q claimed by both %q and %q", norm, existing.Key, a.Key))
			}
			bySurfaceForm[norm] = a
		}
	}
}

// IsAuthor reports whether token matches any known author's surface form.
func IsAuthor(token string) bool {
	_, ok := bySurfaceForm[normalizeSurfaceForm(token)]
	return ok
}

// Matches returns the Author for token, if any surface form matches.
func Matches(token string) (Author, bool) {
	a, ok := bySurfaceForm[normalizeSurfaceForm(token)]
	return a, ok
}

// ByKey returns the Author registered under key.
func ByKey(key string) (Author, bool) {
	a, ok := byKey[key]
	return a, ok
}

// CorpusRef returns the corpus ref prefix used to scope searches to an
// author's works.
func CorpusRef(key string) (string, bool) {
	a, ok := byKey[key]
	if !ok {
		return "", false
	}
	return a.CorpusAuthorRef, true
}

// DetectInText scans free text for known author surface forms and returns
// the matched keys, longest-surface-form-first so "moshe isserles" is
// preferred over any single-word partial overlap.
func DetectInText(text string) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var keys []string
	forms := make([]string, 0, len(bySurfaceForm))
	for sf := range bySurfaceForm {
		forms = append(forms, sf)
	}
	// longest first so multi-word forms win over a contained single word
	for i := 0; i < len(forms); i++ {
		for j := i + 1; j < len(forms); j++ {
			if len(forms[j]) > len(forms[i]) {
				forms[i], forms[j] = forms[j], forms[i]
			}
		}
	}
	for _, sf := range forms {
		if strings.Contains(lower, sf) {
			a := bySurfaceForm[sf]
			if !seen[a.Key] {
				seen[a.Key] = true
				keys = append(keys, a.Key)
			}
		}
	}
	return keys
}

// All returns the full catalog in registration order.
func All() []Author {
	out := make([]Author, len(catalog))
	copy(out, catalog)
	return out
}
