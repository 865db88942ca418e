package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixedFormatters(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Success", Success, "✓"},
		{"Warn", Warn, "⚠"},
		{"Err", Err, "✗"},
		{"Info", Info, "ℹ"},
		{"Hint", Hint, "→"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fn("done")
			assert.Contains(t, result, tt.prefix)
			assert.Contains(t, result, "done")
			assert.Contains(t, tt.fn(""), tt.prefix)
		})
	}
}

func TestInfoDifferentFromHint(t *testing.T) {
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestAllFormattersKeepInput(t *testing.T) {
	formatters := map[string]func(string) string{
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"ChainName": ChainName,
		"DangerBox": DangerBox,
	}
	for name, fn := range formatters {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, fn("test"), "test")
		})
	}
}

func TestDangerBoxHasBorder(t *testing.T) {
	result := DangerBox("approve 50 GAME\n")
	assert.Contains(t, result, "approve 50 GAME")
	assert.Contains(t, result, "╭")
	assert.NotPanics(t, func() { DangerBox("") })
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))

	addr := "0x1234567890abcdef1234567890abcdef12345678"
	assert.Equal(t, "0x1234…5678", TruncateAddr(addr))
}

func TestBannerMentionsProduct(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	result := Banner()
	assert.Contains(t, result, "Crowdfunding")
	assert.Contains(t, result, "v9.9.9")
}
