package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"06:00", "0 0 6 * * *"},
		{"00:00", "0 0 0 * * *"},
		{"23:59", "0 59 23 * * *"},
		{"9:30", "0 30 9 * * *"},
	}

	for _, tc := range cases {
		spec, err := buildDailySpec(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, spec)
	}
}

func TestBuildDailySpecRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "6", "24:00", "12:60", "ab:cd", "12:00:00"} {
		_, err := buildDailySpec(input)
		assert.Error(t, err, "input %q", input)
	}
}
