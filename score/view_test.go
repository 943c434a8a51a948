package score

import (
	"fmt"
	"testing"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{60, "1:00"},
		{75, "1:15"},
		{3600, "60:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.seconds); got != tt.expected {
			t.Errorf("FormatTime(%d) = %q, want %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestMedal(t *testing.T) {
	expected := []string{"🥇", "🥈", "🥉", "#4", "#10"}
	for i, idx := range []int{0, 1, 2, 3, 9} {
		if got := Medal(idx); got != expected[i] {
			t.Errorf("Medal(%d) = %q, want %q", idx, got, expected[i])
		}
	}
}

func TestDifficultyLabel(t *testing.T) {
	if got := DifficultyLabel("medium"); got != "Medium" {
		t.Errorf("expected Medium, got %q", got)
	}
}

func TestBuildLeaderboard(t *testing.T) {
	records := Samples()
	Sort(records)
	entries := BuildLeaderboard(records)

	if len(entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Rank != 1 || first.Medal != "🥇" || !first.TopThree {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if first.PlayerName != "Professor Oak" || first.FormattedTime != "0:29" || first.DifficultyLabel != "Hard" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if entries[3].TopThree || entries[3].Medal != "#4" {
		t.Errorf("fourth entry should not be top three: %+v", entries[3])
	}
}

func TestBuildProfileLimitsRecentGames(t *testing.T) {
	var records []Record
	for i := 0; i < 7; i++ {
		records = append(records, Record{ID: RecordID(fmt.Sprint(i)), Time: 30 + i, Moves: 10, Difficulty: "easy"})
	}
	p := BuildProfile("Ash", records)

	if p.PlayerName != "Ash" {
		t.Errorf("expected Ash, got %q", p.PlayerName)
	}
	if len(p.RecentGames) != RecentGamesLimit {
		t.Fatalf("expected %d recent games, got %d", RecentGamesLimit, len(p.RecentGames))
	}
	if p.RecentGames[0].ID != "0" || p.RecentGames[4].ID != "4" {
		t.Errorf("recent games should be the first five in order, got %s..%s", p.RecentGames[0].ID, p.RecentGames[4].ID)
	}
	if p.Stats.TotalGames != 7 {
		t.Errorf("stats should cover all records, got %d", p.Stats.TotalGames)
	}
	if p.FormattedBestTime != "0:30" || p.FormattedAverageTime != "0:33" {
		t.Errorf("unexpected formatted times %q and %q", p.FormattedBestTime, p.FormattedAverageTime)
	}
}

func TestBuildProfileEmpty(t *testing.T) {
	p := BuildProfile("Pokemon Trainer", nil)
	if p.FormattedBestTime != "N/A" || len(p.RecentGames) != 0 {
		t.Errorf("unexpected empty profile: %+v", p)
	}
}
