package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodeMatcher(t *testing.T) {
	m, err := ParseAcceptedStatusCodes([]string{"2xx", "301", "418"})
	require.NoError(t, err)

	cases := []struct {
		status int
		want   bool
	}{
		{200, true},
		{299, true},
		{301, true},
		{302, false},
		{418, true},
		{500, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, m.Match(tc.status), "status %d", tc.status)
	}
}

func TestStatusCodeMatcherRange(t *testing.T) {
	m, err := ParseAcceptedStatusCodes([]string{"200-299", "404"})
	require.NoError(t, err)

	assert.True(t, m.Match(204))
	assert.True(t, m.Match(404))
	assert.False(t, m.Match(301))
	assert.False(t, m.Match(199))
	assert.False(t, m.Match(300))
}

func TestStatusCodeMatcherDefault(t *testing.T) {
	m, err := ParseAcceptedStatusCodes(nil)
	require.NoError(t, err)

	assert.True(t, m.Match(200))
	assert.False(t, m.Match(301))
}

func TestStatusCodeMatcherInvalid(t *testing.T) {
	for _, raw := range []string{"abc", "2x", "300-200", "1-x"} {
		_, err := ParseAcceptedStatusCodes([]string{raw})
		assert.Error(t, err, "item %q", raw)
	}
}
