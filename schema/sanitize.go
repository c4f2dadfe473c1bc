package schema

import (
	"regexp"
	"strings"

	"github.com/golshani-mhd/grizzle-ingest/ingesterr"
)

// fastPathIdentifier matches identifiers that are already safe SQL names
// and need only lowercasing.
var fastPathIdentifier = regexp.MustCompile(`(?i)^[A-Z_][A-Z_0-9]{1,64}$`)

var invalidIdentifierChar = regexp.MustCompile(`[^A-Za-z0-9_]`)
var repeatedUnderscore = regexp.MustCompile(`_+`)

// Sanitize normalizes name into a conservative SQL identifier: the fast
// path accepts names already matching ^[A-Z_][A-Z_0-9]{1,64}$ (lowercased
// verbatim); the slow path strips a trailing `.qualifier`, replaces
// disallowed characters with `_`, prefixes a leading digit with `_`,
// collapses runs of `_`, and lowercases. An empty result after cleaning is
// an error.
func Sanitize(name string) (string, error) {
	if fastPathIdentifier.MatchString(name) {
		return strings.ToLower(name), nil
	}

	cleaned := name
	if idx := strings.Index(cleaned, "."); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	cleaned = invalidIdentifierChar.ReplaceAllString(cleaned, "_")
	if len(cleaned) > 0 && cleaned[0] >= '0' && cleaned[0] <= '9' {
		cleaned = "_" + cleaned
	}
	cleaned = repeatedUnderscore.ReplaceAllString(cleaned, "_")
	cleaned = strings.ToLower(cleaned)

	if cleaned == "" {
		return "", ingesterr.NewGeneric("name empty after cleaning (input %q)", name)
	}
	return cleaned, nil
}
