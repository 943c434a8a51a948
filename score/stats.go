package score

import "math"

// Stats aggregates a player's records. Every stored record is a completed
// round, so GamesWon equals TotalGames and WinRate is 100 once any exist.
type Stats struct {
	TotalGames   int  `json:"totalGames"`
	BestTime     *int `json:"bestTime"`
	BestMoves    *int `json:"bestMoves"`
	AverageTime  int  `json:"averageTime"`
	AverageMoves int  `json:"averageMoves"`
	GamesWon     int  `json:"gamesWon"`
	WinRate      int  `json:"winRate"`
}

// Aggregate computes Stats over records. Means are rounded to the nearest
// integer; an empty input yields zero values and nil bests.
func Aggregate(records []Record) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	bestTime, bestMoves := records[0].Time, records[0].Moves
	var sumTime, sumMoves int
	for _, r := range records {
		bestTime = min(bestTime, r.Time)
		bestMoves = min(bestMoves, r.Moves)
		sumTime += r.Time
		sumMoves += r.Moves
	}

	n := len(records)
	return Stats{
		TotalGames:   n,
		BestTime:     &bestTime,
		BestMoves:    &bestMoves,
		AverageTime:  int(math.Round(float64(sumTime) / float64(n))),
		AverageMoves: int(math.Round(float64(sumMoves) / float64(n))),
		GamesWon:     n,
		WinRate:      100,
	}
}
