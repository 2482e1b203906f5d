package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceShorthandEmojis(t *testing.T) {
	out := ReplaceShorthandEmojis("fast :rocket: parser")

	assert.NotContains(t, out, ":rocket:")
	assert.True(t, strings.HasPrefix(out, "fast "))
	assert.True(t, strings.HasSuffix(out, " parser"))
}

func TestReplaceShorthandEmojisLeavesPlainText(t *testing.T) {
	tests := []string{
		"",
		"no shortcodes here",
		"time is 10:30:00",
	}

	for _, in := range tests {
		assert.Equal(t, in, ReplaceShorthandEmojis(in))
	}
}
