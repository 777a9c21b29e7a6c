package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := Parse([]byte("no_decompile: true\nword_bits: 16\n"))
	require.NoError(t, err)

	assert.True(t, s.NoDecompile)
	assert.False(t, s.NoRemoveLabels)
	assert.Equal(t, 16, s.WordBits)

	s, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)

	_, err = Parse([]byte("word_bits: 100\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("word_bits: [\n"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	s := Default()
	s.Merge(&Settings{PrintRTL: true, WordBits: 64})
	s.Merge(nil)

	assert.True(t, s.PrintRTL)
	assert.Equal(t, 64, s.WordBits)

	var nilSettings *Settings
	assert.Equal(t, DefaultWordBits, nilSettings.Get().WordBits)
}
