package quantity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want int
	}{
		{"", 10, 1},
		{"abc", 10, 1},
		{"-4", 10, 1},
		{"0", 10, 1},
		{"0.5", 10, 1},
		{"2.5", 10, 2},
		{"2.9", 10, 2},
		{" 5 ", 10, 5},
		{"7", 3, 3},
		{"99999999999999999999", 4, 4},
		{"NaN", 10, 1},
		{"+Inf", 10, 10},
		{"-Inf", 10, 1},
		{"3", 0, 1},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Clamp(tc.in, tc.max), "in=%q max=%d", tc.in, tc.max)
	}
}

func TestAtLeastOne(t *testing.T) {
	require.Equal(t, 1, AtLeastOne("abc"))
	require.Equal(t, 2, AtLeastOne("2.5"))
	require.Equal(t, 1, AtLeastOne("-3"))
	require.Equal(t, 250, AtLeastOne("250"))
	require.Positive(t, AtLeastOne("99999999999999999999"))
}
