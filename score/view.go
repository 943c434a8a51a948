package score

// RecentGamesLimit is how many records the profile lists.
const RecentGamesLimit = 5

// LeaderboardEntry is one leaderboard row.
type LeaderboardEntry struct {
	Record
	Rank            int    `json:"rank"`
	Medal           string `json:"medal"`
	TopThree        bool   `json:"topThree"`
	FormattedTime   string `json:"formattedTime"`
	DifficultyLabel string `json:"difficultyLabel"`
}

// BuildLeaderboard turns sorted records into leaderboard rows.
func BuildLeaderboard(records []Record) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, len(records))
	for i, r := range records {
		entries[i] = LeaderboardEntry{
			Record:          r,
			Rank:            i + 1,
			Medal:           Medal(i),
			TopThree:        i < 3,
			FormattedTime:   FormatTime(r.Time),
			DifficultyLabel: DifficultyLabel(r.Difficulty),
		}
	}
	return entries
}

// RecentGame is one row of the profile's recent games list.
type RecentGame struct {
	Record
	FormattedTime   string `json:"formattedTime"`
	DifficultyLabel string `json:"difficultyLabel"`
}

// ProfileView is the player profile page model.
type ProfileView struct {
	PlayerName           string       `json:"playerName"`
	Stats                Stats        `json:"stats"`
	FormattedBestTime    string       `json:"formattedBestTime"`
	FormattedAverageTime string       `json:"formattedAverageTime"`
	RecentGames          []RecentGame `json:"recentGames"`
}

// BuildProfile aggregates records into the profile view for playerName.
// records are expected in leaderboard order.
func BuildProfile(playerName string, records []Record) ProfileView {
	stats := Aggregate(records)
	recent := records
	if len(recent) > RecentGamesLimit {
		recent = recent[:RecentGamesLimit]
	}
	games := make([]RecentGame, len(recent))
	for i, r := range recent {
		games[i] = RecentGame{
			Record:          r,
			FormattedTime:   FormatTime(r.Time),
			DifficultyLabel: DifficultyLabel(r.Difficulty),
		}
	}
	return ProfileView{
		PlayerName:           playerName,
		Stats:                stats,
		FormattedBestTime:    FormatOptionalTime(stats.BestTime),
		FormattedAverageTime: FormatTime(stats.AverageTime),
		RecentGames:          games,
	}
}
