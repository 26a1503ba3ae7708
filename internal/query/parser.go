package query

import "strings"

// optionFlags are the only letters accepted after a leading "-".
const optionFlags = "dseH"

// minQueryTokens is the size of the smallest valid query, e.g. "-d 1 word".
const minQueryTokens = 3

// ExtractOptions pulls every "-x value" pair out of parts. It returns the
// pairs space-joined in their original order, plus the remaining terms.
// A query must carry at least one option.
func ExtractOptions(parts []string) (string, []string, error) {
	input := strings.Join(parts, " ")

	var options []string
	terms := make([]string, 0, len(parts))

	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if !strings.HasPrefix(part, "-") {
			terms = append(terms, part)
			continue
		}
		if len(part) != 2 || !strings.ContainsRune(optionFlags, rune(part[1])) {
			return "", nil, newParseError(input, "unsupported option %q", part)
		}
		if i+1 >= len(parts) {
			return "", nil, newParseError(input, "option %s has no value", part)
		}
		options = append(options, part, parts[i+1])
		i++ // value consumed with its flag
	}

	if len(options) == 0 {
		return "", nil, newParseError(input, "query has no options")
	}
	return strings.Join(options, " "), terms, nil
}

// ParseQuery splits a compound shorthand query into independent subqueries.
// Each starred term becomes its own subquery; any unstarred terms are joined
// into a single quoted phrase emitted last. On error no subqueries are
// returned.
func ParseQuery(q string) ([]string, error) {
	parts := strings.Fields(q)
	if len(parts) < minQueryTokens {
		return nil, newParseError(q, "expected at least %d tokens, got %d", minQueryTokens, len(parts))
	}

	options, terms, err := ExtractOptions(parts)
	if err != nil {
		return nil, err
	}

	var starred, unstarred []string
	for _, term := range terms {
		if strings.HasPrefix(term, "*") {
			starred = append(starred, term)
		} else {
			unstarred = append(unstarred, term)
		}
	}

	queries := make([]string, 0, len(starred)+1)
	for _, term := range starred {
		queries = append(queries, options+" "+term)
	}
	if len(unstarred) > 0 {
		queries = append(queries, options+` "`+strings.Join(unstarred, " ")+`"`)
	}
	return queries, nil
}
