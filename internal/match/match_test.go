package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var corpus = []string{
	"ராகி (Ragi)",
	"ராகி மாவு (Ragi flour)",
	"Rice",
	"Red corn",
	"Country sugar",
}

func TestFuzzy_RanksCloserMatchesFirst(t *testing.T) {
	got := Fuzzy{}.Match(corpus, "ragi")
	assert.Equal(t, []string{"ராகி (Ragi)", "ராகி மாவு (Ragi flour)"}, got)
}

func TestFuzzy_IgnoresCase(t *testing.T) {
	got := Fuzzy{}.Match(corpus, "RICE")
	assert.Equal(t, []string{"Rice"}, got)
}

func TestFuzzy_BlankQueryReturnsCorpus(t *testing.T) {
	got := Fuzzy{}.Match(corpus, "   ")
	assert.Equal(t, corpus, got)
}

func TestFuzzy_NoMatch(t *testing.T) {
	assert.Empty(t, Fuzzy{}.Match(corpus, "xyz"))
	assert.Equal(t, corpus, Fuzzy{FallbackToCorpus: true}.Match(corpus, "xyz"))
}

func TestFuzzy_DoesNotAliasCorpus(t *testing.T) {
	in := []string{"a", "b"}
	out := Fuzzy{}.Match(in, "")
	out[0] = "changed"
	assert.Equal(t, "a", in[0])
}
