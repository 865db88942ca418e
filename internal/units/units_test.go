package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.5", "500000000000000000"},
		{"0,5", "500000000000000000"},
		{" 2.25 ", "2250000000000000000"},
		{".1", "100000000000000000"},
		{"3.", "3000000000000000000"},
		{"0", "0"},
		{"0.000000000000000001", "1"},
		{"-1", "-1000000000000000000"},
		{"007", "7000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", " ", "abc", "1.2.3", "1e18", "0x10", ".", "-", "1 000", "0.0000000000000000001"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseEther(in)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestParseTokenDecimals(t *testing.T) {
	v, err := Parse("50", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000_000), v.Int64())

	v, err = Parse("120", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(120), v.Int64())

	_, err = Parse("1.5", 0)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v        *big.Int
		decimals uint8
		want     string
	}{
		{big.NewInt(0), 18, "0.0"},
		{new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), 18, "1.0"},
		{big.NewInt(250_000_000_000_000_000), 18, "0.25"},
		{big.NewInt(1), 18, "0.000000000000000001"},
		{big.NewInt(1_500_000), 6, "1.5"},
		{big.NewInt(42), 0, "42.0"},
		{big.NewInt(-5_000_000), 6, "-5.0"},
		{nil, 18, "0.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.v, tt.decimals))
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, s := range []string{"1.0", "0.25", "123.456"} {
		v, err := ParseEther(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatEther(v))
	}
}
