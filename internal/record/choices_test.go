package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivory/internal/answers"
	"ivory/internal/eligibility"
)

func TestChoiceTable(t *testing.T) {
	code, err := Intentions.Code("Hire it out")
	require.NoError(t, err)
	assert.Equal(t, 881990001, code)

	_, err = Intentions.Code("hire it out")
	assert.ErrorIs(t, err, ErrUnknownChoice)

	codes, err := AgeReasons.Codes([]string{"Carbon dating", "Stamp, serial number or signature"})
	require.NoError(t, err)
	assert.Equal(t, "881990006,881990000", codes)

	_, err = AgeReasons.Codes([]string{"Dated receipt", "Gut feeling"})
	assert.ErrorIs(t, err, ErrUnknownChoice)
}

func TestEveryItemTypeHasACategory(t *testing.T) {
	seen := map[int]bool{}
	for _, it := range eligibility.ItemTypes {
		code, err := ExemptionCategory(it)
		require.NoError(t, err, "item type %s", it)
		assert.False(t, seen[code], "duplicate code %d", code)
		seen[code] = true
	}
}

func TestEverySpeciesHasACode(t *testing.T) {
	for _, s := range eligibility.Species {
		if s == answers.NoneOfThese {
			continue
		}
		_, err := Species.Code(s)
		assert.NoError(t, err, "species %q", s)
	}
}
