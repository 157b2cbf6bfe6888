package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"long yes", "Yes\n", true},
		{"padded", "  YES  \n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"eof", "", false},
		{"other", "sure\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := confirm(&out, strings.NewReader(tt.input), "Clear the cache?")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "? Clear the cache? [y/N] ", out.String())
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "héll…", truncate("héllo wörld", 5))
}
