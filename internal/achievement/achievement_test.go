package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"platChallengesAPI/internal/challenge"
)

func TestChallengeCriteria(t *testing.T) {
	assert.Equal(t, CriteriaLetterChallenges, ChallengeCriteria(challenge.TypeLetter))
	assert.Equal(t, CriteriaDayChallenges, ChallengeCriteria(challenge.TypeDay))
	assert.Equal(t, CriteriaGenreChallenges, ChallengeCriteria(challenge.TypeGenre))
	assert.Empty(t, ChallengeCriteria(challenge.Type("bingo")))
}

func TestReached(t *testing.T) {
	a := &Achievement{CriteriaValue: 30}
	assert.False(t, a.Reached(29))
	assert.True(t, a.Reached(30))
	assert.True(t, a.Reached(31))

	assert.False(t, (&Achievement{}).Reached(5))
}
