// Package lang provides lightweight language detection for ingested article
// text. Detection is rune-range based with an English stopword check; it is
// good enough to tag records, not a general-purpose classifier.
package lang

import (
	"strings"
	"unicode"
)

const (
	langEnglish = "en"
	langRussian = "ru"
	langFrench  = "fr"
	langGerman  = "de"

	cyrillicThreshold    = 0.3
	latinThreshold       = 0.5
	englishStopwordMin   = 1
	englishStopwordRatio = 0.08
	germanStopwordRatio  = 0.06
	frenchStopwordRatio  = 0.06
)

var englishStopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "is": {}, "for": {}, "on": {}, "with": {},
	"as": {}, "by": {}, "from": {}, "at": {}, "that": {}, "this": {}, "be": {}, "are": {}, "was": {},
	"were": {}, "has": {}, "have": {}, "will": {}, "its": {}, "it": {},
}

var germanStopwords = map[string]struct{}{
	"der": {}, "die": {}, "das": {}, "und": {}, "ist": {}, "nicht": {}, "mit": {}, "ein": {},
	"eine": {}, "für": {}, "auf": {}, "den": {}, "von": {}, "zu": {}, "im": {}, "sich": {},
}

var frenchStopwords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "des": {}, "une": {}, "est": {}, "dans": {}, "pour": {},
	"que": {}, "qui": {}, "sur": {}, "avec": {}, "pas": {}, "aux": {}, "ses": {}, "été": {},
}

// Detect returns a short language code for the text ("en", "ru", "de", "fr")
// or "" if unknown.
func Detect(text string) string {
	if text == "" {
		return ""
	}

	latinCount, cyrillicCount, totalLetters := countChars(text)
	if totalLetters == 0 {
		return ""
	}

	if float64(cyrillicCount)/float64(totalLetters) >= cyrillicThreshold {
		return langRussian
	}

	if float64(latinCount)/float64(totalLetters) >= latinThreshold {
		return detectLatinLanguage(text)
	}

	return ""
}

func detectLatinLanguage(text string) string {
	words := splitWords(text)
	if len(words) == 0 {
		return ""
	}

	if stopwordRatio(words, englishStopwords) >= englishStopwordRatio && stopwordHits(words, englishStopwords) >= englishStopwordMin {
		return langEnglish
	}

	if stopwordRatio(words, germanStopwords) >= germanStopwordRatio {
		return langGerman
	}

	if stopwordRatio(words, frenchStopwords) >= frenchStopwordRatio {
		return langFrench
	}

	return ""
}

func countChars(text string) (latinCount, cyrillicCount, totalLetters int) {
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}

		totalLetters++

		switch {
		case isCyrillic(r):
			cyrillicCount++
		case isLatin(r):
			latinCount++
		}
	}

	return
}

func isCyrillic(r rune) bool {
	return (r >= 0x0400 && r <= 0x04FF) ||
		(r >= 0x0500 && r <= 0x052F) // Cyrillic Supplement
}

func isLatin(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
		(r >= 0x00C0 && r <= 0x00FF) || // Latin-1 Supplement
		(r >= 0x0100 && r <= 0x017F) // Latin Extended-A
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func stopwordHits(words []string, stopwords map[string]struct{}) int {
	hits := 0

	for _, w := range words {
		if _, ok := stopwords[w]; ok {
			hits++
		}
	}

	return hits
}

func stopwordRatio(words []string, stopwords map[string]struct{}) float64 {
	if len(words) == 0 {
		return 0
	}

	return float64(stopwordHits(words, stopwords)) / float64(len(words))
}
