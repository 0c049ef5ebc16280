package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "curto", truncate("curto", 200))
	assert.Equal(t, "", truncate("", 200))

	long := strings.Repeat("a", 300)
	got := truncate(long, 200)
	assert.Len(t, []rune(got), 200)
	assert.True(t, strings.HasSuffix(got, "…"))

	// Multi-byte text must be cut on rune boundaries.
	accented := strings.Repeat("ã", 250)
	got = truncate(accented, 200)
	assert.Len(t, []rune(got), 200)
}

func TestKnownTopic(t *testing.T) {
	b := &Bot{topics: []string{"Penal", "Constitucional"}}

	assert.True(t, b.knownTopic("Penal"))
	assert.False(t, b.knownTopic("penal"))
	assert.False(t, b.knownTopic("Tributário"))
	assert.False(t, b.knownTopic(""))
}
