package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	name   string
	credit int
}

func byCredit(i item) int { return i.credit }

func names(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.name
	}
	return out
}

func TestRank_StableOnTies(t *testing.T) {
	in := []item{{"P1", 90}, {"P2", 90}, {"P3", 70}}
	assert.Equal(t, []string{"P1", "P2", "P3"}, names(Rank(in, byCredit)))

	// Ties keep input order even when they are not adjacent.
	in = []item{{"A", 70}, {"B", 90}, {"C", 70}, {"D", 90}, {"E", 150}}
	assert.Equal(t, []string{"E", "B", "D", "A", "C"}, names(Rank(in, byCredit)))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := []item{{"low", 10}, {"high", 100}}
	out := Rank(in, byCredit)
	assert.Equal(t, []string{"high", "low"}, names(out))
	assert.Equal(t, []string{"low", "high"}, names(in))
}

func TestRank_ReadsLiveScores(t *testing.T) {
	scores := map[string]int{"a": 80, "b": 80}
	key := func(s string) int { return scores[s] }

	assert.Equal(t, []string{"a", "b"}, Rank([]string{"a", "b"}, key))

	scores["b"] = 82
	assert.Equal(t, []string{"b", "a"}, Rank([]string{"a", "b"}, key))
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank([]item{}, byCredit))
	assert.Empty(t, Rank[item](nil, byCredit))
}

func TestNormalize_ComposesWithoutFolding(t *testing.T) {
	decomposed := "Cafe\u0301"
	assert.Equal(t, "Caf\u00e9", Normalize(decomposed))
	assert.Equal(t, "ALICE", Normalize("ALICE"))
	assert.Equal(t, " x ", Normalize(" x "))
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Bob", CleanName("  Bob\t"))
	assert.Equal(t, "", CleanName("   "))
}
