package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleQueries = []string{
	"-d 1 *Executive *Judicial",
	"-H 8 Warren Gillibrand",
	"-d 5 *Business Schumer",
	"-s 12/15/2017 -e 12/16/2017 Jones *Executive",
}

func TestExtractOptions_KeepsOriginalOrder(t *testing.T) {
	expected := []string{"-d 1", "-H 8", "-d 5", "-s 12/15/2017 -e 12/16/2017"}

	for i, q := range sampleQueries {
		options, _, err := ExtractOptions(strings.Fields(q))
		require.NoError(t, err, q)
		assert.Equal(t, expected[i], options, q)
	}
}

func TestExtractOptions_MultiplePairs(t *testing.T) {
	options, terms, err := ExtractOptions(strings.Fields("-d 1 -H 8 term"))
	require.NoError(t, err)
	assert.Equal(t, "-d 1 -H 8", options)
	assert.Equal(t, []string{"term"}, terms)
}

func TestExtractOptions_RejectsUnknownFlag(t *testing.T) {
	for _, flag := range []string{"-x", "-a", "-h", "-D", "-E"} {
		_, _, err := ExtractOptions([]string{flag, "1", "term"})
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "flag %s should fail", flag)
	}
}

func TestExtractOptions_RejectsMalformedFlags(t *testing.T) {
	cases := [][]string{
		{"-", "1", "term"},
		{"-dd", "1", "term"},
		{"-d", "1", "term", "-H"},
		{"-d", "1", "foo", "-e"},
	}
	for _, parts := range cases {
		_, _, err := ExtractOptions(parts)
		assert.Error(t, err, "%v", parts)
	}
}

func TestExtractOptions_RequiresAnOption(t *testing.T) {
	_, _, err := ExtractOptions([]string{"just", "some", "words"})
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Error(), "no options")
}

func TestParseQuery_Examples(t *testing.T) {
	expected := [][]string{
		{"-d 1 *Executive", "-d 1 *Judicial"},
		{`-H 8 "Warren Gillibrand"`},
		{"-d 5 *Business", `-d 5 "Schumer"`},
		{
			"-s 12/15/2017 -e 12/16/2017 *Executive",
			`-s 12/15/2017 -e 12/16/2017 "Jones"`,
		},
	}

	for i, q := range sampleQueries {
		queries, err := ParseQuery(q)
		require.NoError(t, err, q)
		assert.Equal(t, expected[i], queries, q)
	}
}

func TestParseQuery_StarredOnlyEmitsNoPhrase(t *testing.T) {
	queries, err := ParseQuery("-d 2 *France")
	require.NoError(t, err)
	assert.Equal(t, []string{"-d 2 *France"}, queries)
}

func TestParseQuery_TooFewTokens(t *testing.T) {
	for _, q := range []string{"", "-d", "-d 1", "*Executive", "a b", "-H 8"} {
		queries, err := ParseQuery(q)
		assert.Error(t, err, "query %q", q)
		assert.Empty(t, queries, "query %q", q)
	}
}

func TestParseQuery_FailureReturnsNoPartialResults(t *testing.T) {
	queries, err := ParseQuery("-d 1 *Executive -q 3 Jones")
	assert.Error(t, err)
	assert.Nil(t, queries)
}

func TestParseQuery_NoOptions(t *testing.T) {
	queries, err := ParseQuery("Warren Gillibrand Schumer")
	assert.Error(t, err)
	assert.Nil(t, queries)
}

func TestParseQuery_CollapsesRepeatedSpaces(t *testing.T) {
	queries, err := ParseQuery("-H  8   Warren  Gillibrand")
	require.NoError(t, err)
	assert.Equal(t, []string{`-H 8 "Warren Gillibrand"`}, queries)
}
