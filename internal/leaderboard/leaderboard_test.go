package leaderboard

import (
	"testing"

	"github.com/google/uuid"
)

func TestMergeScoresZeroFillsAndOrders(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")

	scores := mergeScores([]uuid.UUID{a, b, c}, map[uuid.UUID]int{b: 5, c: 2})

	if len(scores) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(scores))
	}
	if scores[0].EntryID != b || scores[0].Votes != 5 {
		t.Fatalf("expected b=5 first, got %+v", scores[0])
	}
	if scores[1].EntryID != c || scores[1].Votes != 2 {
		t.Fatalf("expected c=2 second, got %+v", scores[1])
	}
	if scores[2].EntryID != a || scores[2].Votes != 0 {
		t.Fatalf("expected zero-filled a last, got %+v", scores[2])
	}
}

func TestMergeScoresTieBreaksByEntryID(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	scores := mergeScores([]uuid.UUID{b, a}, map[uuid.UUID]int{a: 1, b: 1})
	if scores[0].EntryID != a || scores[1].EntryID != b {
		t.Fatalf("expected deterministic tie order a,b, got %v,%v", scores[0].EntryID, scores[1].EntryID)
	}
}

func TestMergeScoresEmpty(t *testing.T) {
	if got := mergeScores(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(got))
	}
}
