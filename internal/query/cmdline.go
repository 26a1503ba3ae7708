package query

import (
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the look-back used when a command line names no window.
const DefaultWindow = 24 * time.Hour

// SearchContext is the per-request search window plus optional text.
// An empty Query means the search is on the date window only.
type SearchContext struct {
	Start    time.Time
	End      time.Time
	Query    string
	Language string
}

// HasQuery reports whether the context carries a text query.
func (sc SearchContext) HasQuery() bool {
	return strings.TrimSpace(sc.Query) != ""
}

// ParseCommandLine turns one subquery such as `-d 5 *Business` or
// `-s 2017-12-15 -e 2017-12-16 "Jones"` into a SearchContext relative to now.
//
// -d and -H are additive look-backs, -s overrides the start, -e the end.
// With no window option the context covers the last fallback duration
// (DefaultWindow when fallback is zero).
func ParseCommandLine(line string, now time.Time, fallback time.Duration) (SearchContext, error) {
	if fallback <= 0 {
		fallback = DefaultWindow
	}
	parts := strings.Fields(line)

	var (
		days, hours        int
		relative           bool
		start, end         time.Time
		haveStart, haveEnd bool
		terms              []string
	)

	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if len(part) != 2 || part[0] != '-' || !strings.ContainsRune(optionFlags, rune(part[1])) {
			terms = append(terms, part)
			continue
		}
		if i+1 >= len(parts) {
			return SearchContext{}, newParseError(line, "option %s has no value", part)
		}
		value := parts[i+1]
		i++

		switch part[1] {
		case 'd', 'H':
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return SearchContext{}, newParseError(line, "option %s needs a non-negative integer, got %q", part, value)
			}
			if part[1] == 'd' {
				days = n
			} else {
				hours = n
			}
			relative = true
		case 's':
			t, err := ParseDate(value)
			if err != nil {
				return SearchContext{}, newParseError(line, "%v", err)
			}
			start, haveStart = t, true
		case 'e':
			t, err := ParseDate(value)
			if err != nil {
				return SearchContext{}, newParseError(line, "%v", err)
			}
			end, haveEnd = t, true
		}
	}

	now = now.UTC()
	if !haveEnd {
		end = now
	}
	switch {
	case haveStart:
		// explicit start wins over any look-back
	case relative:
		start = now.Add(-time.Duration(days)*24*time.Hour - time.Duration(hours)*time.Hour)
	default:
		start = now.Add(-fallback)
	}

	if !end.After(start) {
		return SearchContext{}, newParseError(line, "end %s is not after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	return SearchContext{
		Start: start,
		End:   end,
		Query: strings.Join(terms, " "),
	}, nil
}
