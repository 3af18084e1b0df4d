package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoldEscapes(t *testing.T) {
	assert.Equal(t, "<b>Tom &amp; Jerry &lt;3</b>", Bold("Tom & Jerry <3"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("  abc ", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 3))
	assert.Equal(t, "фи…", Truncate("фильм", 3))
	assert.Empty(t, Truncate("abc", 0))
}

func TestOptionalInt(t *testing.T) {
	n := 7
	assert.Equal(t, "7", OptionalInt(&n))
	assert.Equal(t, "-", OptionalInt(nil))
}
