package storage

import (
	"strings"
	"unicode"
)

// matchExpr translates free search text into an FTS5 MATCH expression with
// these rules:
//
//   - bare words are alternatives (OR);
//   - "quoted phrases" are all required, and when any phrase is present the
//     bare words no longer widen the match;
//   - a word prefixed with '-' excludes statuses containing it.
//
// Every term is emitted as an FTS5 string so user input cannot inject
// operators. ok is false when the text has no positive term, in which case
// nothing matches.
func matchExpr(text string) (expr string, ok bool) {
	var words, phrases, negated []string

	rest := text
	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			break
		}

		if rest[0] == '"' {
			end := strings.IndexByte(rest[1:], '"')
			var phrase string
			if end < 0 {
				phrase, rest = rest[1:], ""
			} else {
				phrase, rest = rest[1:end+1], rest[end+2:]
			}
			if hasToken(phrase) {
				phrases = append(phrases, ftsString(strings.Join(strings.Fields(phrase), " ")))
			}
			continue
		}

		end := strings.IndexFunc(rest, func(r rune) bool { return unicode.IsSpace(r) || r == '"' })
		if end < 0 {
			end = len(rest)
		}
		word := rest[:end]
		rest = rest[end:]

		if strings.HasPrefix(word, "-") {
			if w := strings.TrimLeft(word, "-"); hasToken(w) {
				negated = append(negated, ftsString(w))
			}
			continue
		}
		if hasToken(word) {
			words = append(words, ftsString(word))
		}
	}

	var positive string
	switch {
	case len(phrases) > 0:
		positive = strings.Join(phrases, " AND ")
	case len(words) > 0:
		positive = strings.Join(words, " OR ")
	default:
		return "", false
	}

	expr = "(" + positive + ")"
	for _, n := range negated {
		expr += " NOT " + n
	}
	return expr, true
}

// hasToken reports whether s contains anything the unicode61 tokenizer keeps.
func hasToken(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func ftsString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
