package textproc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanFillersRemovesHesitations(t *testing.T) {
	require.Equal(t, "so I was thinking", CleanFillers("so um I was uh thinking"))
}

func TestCleanFillersRepairsPunctuation(t *testing.T) {
	require.Equal(t, "well, that works", CleanFillers("well, um, that works"))
}

func TestCleanFillersCaseInsensitive(t *testing.T) {
	require.Equal(t, "right", CleanFillers("Um right"))
}

func TestCleanFillersKeepsTrailingSpace(t *testing.T) {
	require.Equal(t, "hello world ", CleanFillers("hello um world "))
}

func TestCleanFillersPureFillerBecomesEmpty(t *testing.T) {
	require.Empty(t, CleanFillers("um uh hmm"))
	require.Empty(t, CleanFillers("   "))
	require.Empty(t, CleanFillers(""))
}

func TestCleanFillersDoesNotTouchEmbeddedWords(t *testing.T) {
	// "umbrella" and "humming" contain filler substrings but are words.
	require.Equal(t, "the umbrella is humming", CleanFillers("the umbrella is humming"))
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "a b c", Normalize("  a\tb \n c "))
}
