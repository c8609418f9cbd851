package rangetext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecificHand(t *testing.T) {
	combos, err := Parse("AsKd")
	require.NoError(t, err)
	require.Len(t, combos, 1)
}

func TestParsePairExpandsToSixCombos(t *testing.T) {
	combos, err := Parse("TT")
	require.NoError(t, err)
	assert.Len(t, combos, 6)
}

func TestParseSuitedClassExpandsToFourCombos(t *testing.T) {
	combos, err := Parse("AKs")
	require.NoError(t, err)
	assert.Len(t, combos, 4)
}

func TestParseOffsuitClassExpandsToTwelveCombos(t *testing.T) {
	combos, err := Parse("AKo")
	require.NoError(t, err)
	assert.Len(t, combos, 12)
}

func TestParseUnsuitedClassIncludesBoth(t *testing.T) {
	combos, err := Parse("AK")
	require.NoError(t, err)
	assert.Len(t, combos, 16)
}

func TestParsePairPlusRange(t *testing.T) {
	combos, err := Parse("QQ+")
	require.NoError(t, err)
	// QQ, KK, AA: 6 combos each.
	assert.Len(t, combos, 18)
}

func TestParseTwoRankPlusRange(t *testing.T) {
	combos, err := Parse("AJ+")
	require.NoError(t, err)
	// AJ, AQ, AK, offsuit+suited: 16 combos each.
	assert.Len(t, combos, 48)
}

func TestParsePairDashRange(t *testing.T) {
	combos, err := Parse("99-JJ")
	require.NoError(t, err)
	assert.Len(t, combos, 18)
}

func TestParseCommaSeparatedDeduplicates(t *testing.T) {
	combos, err := Parse("AA,AA,KK")
	require.NoError(t, err)
	assert.Len(t, combos, 12)
}

func TestParseRandomExpandsToEveryCombo(t *testing.T) {
	combos, err := Parse("random")
	require.NoError(t, err)
	assert.Len(t, combos, 1326)
}

func TestParseRandomIsCaseInsensitive(t *testing.T) {
	combos, err := Parse("RANDOM")
	require.NoError(t, err)
	assert.Len(t, combos, 1326)
}

func TestParseRejectsSameCardTwice(t *testing.T) {
	_, err := Parse("AsAs")
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("ZZ")
	assert.Error(t, err)
}
