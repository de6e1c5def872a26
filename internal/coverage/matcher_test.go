package coverage

import (
	"reflect"
	"testing"

	"github.com/p-n-ai/psr-academy/internal/questionbank"
	"github.com/p-n-ai/psr-academy/internal/standards"
)

func q(id string, tags ...string) questionbank.Question {
	return questionbank.Question{ID: id, Tags: tags}
}

func crit(id string, tags ...string) standards.Criterion {
	return standards.Criterion{ID: id, Label: "Label " + id, Tags: tags}
}

func ids(qs []questionbank.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestIndex_Match(t *testing.T) {
	ix := NewIndex([]questionbank.Question{
		q("q1", "arrest", "detention"),
		q("q2", "bail"),
		q("q3", "detention"),
		q("q4", "arrest-warrant"),
		q("q5"),
	})

	tests := []struct {
		name string
		c    standards.Criterion
		want []string
	}{
		{"single tag", crit("c1", "bail"), []string{"q2"}},
		{"shared tags count once", crit("c2", "arrest", "detention"), []string{"q1", "q3"}},
		{"literal match only", crit("c3", "arrest"), []string{"q1"}},
		{"no overlap", crit("c4", "disclosure"), []string{}},
		{"no tags", crit("c5"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(ix.Match(tt.c))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
			if n := ix.MatchCount(tt.c); n != len(tt.want) {
				t.Errorf("MatchCount() = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func TestIndex_MatchDedupesByID(t *testing.T) {
	ix := NewIndex([]questionbank.Question{
		q("dup", "arrest"),
		q("dup", "detention"),
		q("other", "arrest"),
	})

	got := ids(ix.Match(crit("c", "arrest", "detention")))
	want := []string{"dup", "other"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match() = %v, want %v", got, want)
	}
}

func TestIndex_MatchKeepsBankOrder(t *testing.T) {
	ix := NewIndex([]questionbank.Question{
		q("a", "y"),
		q("b", "x"),
		q("c", "y"),
	})

	got := ids(ix.Match(crit("c", "x", "y")))
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Match() = %v, want %v", got, want)
	}
}

func TestIndex_Add(t *testing.T) {
	ix := NewIndex(nil)
	c := crit("c", "arrest")
	if ix.MatchCount(c) != 0 {
		t.Fatal("empty index should match nothing")
	}

	ix.Add(q("new", "arrest"))
	if ix.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ix.Len())
	}
	if ix.MatchCount(c) != 1 {
		t.Errorf("MatchCount() after Add = %d, want 1", ix.MatchCount(c))
	}
}

// Every consumer goes through Index, so the same inputs give the same set
// whether the index was built in one go or incrementally.
func TestIndex_IncrementalEqualsBatch(t *testing.T) {
	bank := []questionbank.Question{
		q("q1", "a", "b"), q("q2", "b"), q("q3", "c"), q("q4", "a"),
	}
	batch := NewIndex(bank)
	inc := NewIndex(nil)
	for _, x := range bank {
		inc.Add(x)
	}

	for _, c := range []standards.Criterion{crit("1", "a"), crit("2", "b", "c"), crit("3", "z")} {
		if !reflect.DeepEqual(ids(batch.Match(c)), ids(inc.Match(c))) {
			t.Errorf("criterion %s: batch %v != incremental %v", c.ID, ids(batch.Match(c)), ids(inc.Match(c)))
		}
	}
}

func TestCriteriaIndex_Match(t *testing.T) {
	ci := NewCriteriaIndex([]standards.Criterion{
		crit("c1", "arrest"),
		crit("c2", "bail", "arrest"),
		crit("c3", "disclosure"),
	})

	got := ci.Match([]string{"arrest", "disclosure"})
	var gotIDs []string
	for _, c := range got {
		gotIDs = append(gotIDs, c.ID)
	}
	want := []string{"c1", "c2", "c3"}
	if !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("Match() = %v, want %v", gotIDs, want)
	}

	if len(ci.Match([]string{"unknown"})) != 0 {
		t.Error("Match() of unknown tag should be empty")
	}
}
