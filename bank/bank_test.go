package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, b.Len(), 2)

	for _, q := range b.questions {
		assert.True(t, q.Valid(), "bank entry %q must be publishable", q.Text)
		assert.NotEmpty(t, q.Topic)
	}
}

func TestByTopic_Filters(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	penal := b.ByTopic("Penal")
	require.NotEmpty(t, penal)
	for _, q := range penal {
		assert.Equal(t, "Penal", q.Topic)
	}
}

func TestByTopic_FallsBackToFullBank(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	assert.Len(t, b.ByTopic("Tópico Inexistente"), b.Len())
	assert.Len(t, b.ByTopic(""), b.Len())
}
