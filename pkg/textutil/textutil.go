// Package textutil provides the text normalization, validation and
// measurement primitives the scoring pipeline runs on. All heuristic
// matching happens over folded text (lower-cased, diacritics stripped) so
// that "URGÊNCIA", "urgencia" and "Urgência" hit the same keywords.
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Zero-width and directional characters used to pad or obfuscate messages.
	invisibleRunes = runes.In(unicode.Cf)

	multiSpaceRe = regexp.MustCompile(`\s+`)
	letterRe     = regexp.MustCompile(`[A-Za-zÀ-ÿ]`)
	urlRe        = regexp.MustCompile(`https?://[^\s<>"]+|www\.[^\s<>"]+|\b[a-z0-9-]+\.[a-z]{2,}/[^\s<>"]*`)
)

// foldTransformer strips combining marks after NFD decomposition, then
// recomposes. "atenção" -> "atencao".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize strips invisible characters and collapses whitespace.
// The result preserves case and accents; use Fold for matching.
func Normalize(text string) string {
	cleaned, _, err := transform.String(runes.Remove(invisibleRunes), text)
	if err != nil {
		cleaned = text
	}
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Fold lower-cases and strips diacritics for accent-insensitive matching.
func Fold(text string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// InvalidInputError carries the user-facing rejection reason for text that
// cannot be meaningfully scored.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// Validate rejects text that is too short, contains no letters, or is
// mostly non-alphanumeric noise. A nil return means the text is scorable.
func Validate(text string) error {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 3 {
		return &InvalidInputError{Reason: "Texto muito curto"}
	}
	if !letterRe.MatchString(trimmed) {
		return &InvalidInputError{Reason: "Texto sem letras válidas"}
	}
	if SpecialCharRatio(trimmed) > 0.4 {
		return &InvalidInputError{Reason: "Texto excessivamente ofuscado"}
	}
	return nil
}

// SpecialCharRatio returns the fraction of runes that are neither letters,
// digits, whitespace nor common punctuation.
func SpecialCharRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	special := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '.', ',', '!', '?', ':', ';', '-', '(', ')', '\'', '"', '$', '/', '%', '@':
			continue
		}
		special++
	}
	return float64(special) / float64(len(runes))
}

// UppercaseRatio returns the fraction of letters written in upper case.
// Texts with no letters score zero.
func UppercaseRatio(text string) float64 {
	letters, uppers := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(uppers) / float64(letters)
}

// ExclamationCount counts '!' occurrences.
func ExclamationCount(text string) int {
	return strings.Count(text, "!")
}

// ExtractURLs returns all URL-looking substrings in the folded text.
func ExtractURLs(text string) []string {
	return urlRe.FindAllString(Fold(text), -1)
}

// HasURL reports whether the text contains at least one URL.
func HasURL(text string) bool {
	return urlRe.MatchString(Fold(text))
}

// Truncate cuts text to at most n runes, rune-safe.
func Truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// ContentHash returns the hex SHA-256 of the folded text, used as the
// cache key so trivially restyled copies of a scam hit the same entry.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(Fold(Normalize(text))))
	return hex.EncodeToString(sum[:])
}

// MaskPhone keeps the country/area prefix and the last two digits, hiding
// the middle. Used when logging sender identifiers.
func MaskPhone(phone string) string {
	digits := []rune(phone)
	if len(digits) <= 6 {
		return "****"
	}
	return string(digits[:4]) + strings.Repeat("*", len(digits)-6) + string(digits[len(digits)-2:])
}

// ContainsAny reports whether the folded text contains any of the folded
// keywords. Keywords are folded at call time; hot paths should pre-fold.
func ContainsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, Fold(kw)) {
			return true
		}
	}
	return false
}

// CountAny counts how many of the keywords occur at least once.
func CountAny(folded string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(folded, Fold(kw)) {
			n++
		}
	}
	return n
}
