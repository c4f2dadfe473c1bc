package schema

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFastPath(t *testing.T) {
	cases := []string{"Facility_Id", "AB", "A1", "CONTACT_ZIP", "x_9"}
	for _, in := range cases {
		out, err := Sanitize(in)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(in), out)
	}
}

var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*$`)

func TestSanitizeSlowPathShape(t *testing.T) {
	cases := []string{"A.B", "Facility Name!!", "9zip", "a--b__c", "foo.bar.baz", "café"}
	for _, in := range cases {
		out, err := Sanitize(in)
		require.NoError(t, err)
		assert.True(t, validIdentifier.MatchString(out), "output %q for input %q must be a valid identifier", out, in)
		assert.NotContains(t, out, "__", "output %q must not contain a double underscore", out)
	}
}

func TestSanitizeLeadingDigit(t *testing.T) {
	out, err := Sanitize("123abc")
	require.NoError(t, err)
	assert.Equal(t, "_123abc", out)
}

func TestSanitizeQualifierStripped(t *testing.T) {
	out, err := Sanitize("schema.table")
	require.NoError(t, err)
	assert.Equal(t, "schema", out)
}

func TestSanitizeEmptyAfterCleaning(t *testing.T) {
	_, err := Sanitize("...")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name empty after cleaning")
}

func TestSanitizeCollapsesUnderscoreRuns(t *testing.T) {
	out, err := Sanitize("a!!!b")
	require.NoError(t, err)
	assert.Equal(t, "a_b", out)
}
