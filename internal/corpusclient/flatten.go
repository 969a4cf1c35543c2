package corpusclient

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// flattenTextField normalizes the corpus API's "he"/"text" field, which may
// arrive as a bare string, a list of strings, or a nested list of strings.
// It flattens depth-first, joins with spaces, and applies NFC normalization
// so Hebrew text with precomposed vs. combining niqqud marks compares equal
// downstream in knownsugyos/authors matching.
func flattenTextField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var parts []string
	flattenInto(raw, &parts)
	return norm.NFC.String(strings.Join(parts, " "))
}

func flattenInto(raw json.RawMessage, parts *[]string) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if s := strings.TrimSpace(asString); s != "" {
			*parts = append(*parts, s)
		}
		return
	}
	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err == nil {
		for _, item := range asList {
			flattenInto(item, parts)
		}
		return
	}
	// Unrecognized shape (number, bool, object): ignore rather than fail the
	// whole fetch over one malformed nested value.
}
