package strategy

import (
	"strings"
	"testing"

	"github.com/robalobadob/undercover/internal/game"
)

func TestNaiveDescribeHidesWord(t *testing.T) {
	n := NewNaive(1)
	for _, w := range []string{"apple", "pear", "西瓜", " milk "} {
		d := n.Describe(w, 1)
		if d == "" {
			t.Fatalf("empty description for %q", w)
		}
		if strings.Contains(d, strings.TrimSpace(w)) {
			t.Fatalf("description %q leaks word %q", d, w)
		}
	}
	if d := n.Describe("", 2); d == "" {
		t.Fatal("empty description for empty word")
	}
}

func TestNaiveVotesLeastOverlap(t *testing.T) {
	n := NewNaive(1)
	descs := []game.Description{
		{Team: "alpha", Text: n.Describe("apple", 1)},
		{Team: "bravo", Text: n.Describe("apple", 1)},
		{Team: "charlie", Text: n.Describe("pear", 1)},
	}
	got := n.Vote("alpha", []string{"alpha", "bravo", "charlie"}, descs)
	if got != "charlie" {
		t.Fatalf("vote = %q, want charlie", got)
	}
}

func TestNaiveVoteTiesAreSeeded(t *testing.T) {
	descs := []game.Description{
		{Team: "alpha", Text: "red fruit"},
		{Team: "bravo", Text: "blue sky"},
		{Team: "charlie", Text: "green grass"},
	}
	first := NewNaive(42).Vote("alpha", []string{"bravo", "charlie"}, descs)
	for i := 0; i < 5; i++ {
		if got := NewNaive(42).Vote("alpha", []string{"bravo", "charlie"}, descs); got != first {
			t.Fatalf("same seed gave %q then %q", first, got)
		}
	}
	if first != "bravo" && first != "charlie" {
		t.Fatalf("unexpected vote %q", first)
	}
}

func TestNaiveNeverVotesSelf(t *testing.T) {
	n := NewNaive(3)
	if got := n.Vote("alpha", []string{"alpha"}, nil); got != "" {
		t.Fatalf("expected abstain, got %q", got)
	}
	for i := 0; i < 20; i++ {
		if got := n.Vote("alpha", []string{"alpha", "bravo", "charlie"}, nil); got == "alpha" {
			t.Fatal("voted for self")
		}
	}
}
