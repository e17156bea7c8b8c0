package challenge

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TitleLetter returns the letter slot a title belongs to: the first Latin
// letter of the title with diacritics folded ("Ōkami" -> "O"). Titles that
// start with a digit or have no Latin letter return "".
func TitleLetter(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	for _, r := range strings.ToUpper(folded) {
		switch {
		case r >= 'A' && r <= 'Z':
			return string(r)
		case unicode.IsDigit(r), unicode.IsLetter(r):
			return ""
		}
	}
	return ""
}
