package words

import (
	"testing"
	"time"
)

func TestEmbeddedPairs(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if Stats() == 0 {
		t.Fatal("expected embedded pairs")
	}
	for _, p := range Pairs() {
		if p.Civilian == "" || p.Undercover == "" || p.Civilian == p.Undercover {
			t.Fatalf("bad pair %+v", p)
		}
	}
	p := RandomPair()
	if p.Civilian == "" || p.Undercover == "" {
		t.Fatalf("bad random pair %+v", p)
	}
}

func TestDailyPairDeterministic(t *testing.T) {
	day := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	later := day.Add(10 * time.Hour)
	if DailyPair(day, "salt") != DailyPair(later, "salt") {
		t.Fatal("same day produced different pairs")
	}
	if DailyIndex(day, "salt", 0) != 0 {
		t.Fatal("expected 0 for empty list")
	}
	for i := range 30 {
		idx := DailyIndex(day.AddDate(0, 0, i), "salt", 7)
		if idx < 0 || idx >= 7 {
			t.Fatalf("index %d out of range", idx)
		}
	}
}

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	got := DateKey(time.Date(2025, 3, 2, 3, 0, 0, 0, loc))
	if got != "2025-03-01" {
		t.Fatalf("expected UTC date 2025-03-01, got %s", got)
	}
}
