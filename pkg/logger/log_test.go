package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentIsIdempotent(t *testing.T) {
	log := New(true)

	log.Info("first line")
	log.Info("second line")

	first := log.Recent()
	require.Len(t, first, 2)
	assert.Contains(t, first[0], "first line")
	assert.Contains(t, first[1], "second line")

	// A second read must see the same tail, not an emptied buffer.
	second := log.Recent()
	assert.Equal(t, first, second)
}

func TestRecentKeepsOrderAcrossReads(t *testing.T) {
	log := New(true)

	log.Info("one")
	_ = log.Recent()

	log.Info("two")

	lines := log.Recent()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "one")
	assert.Contains(t, lines[1], "two")
}
