package models

import (
	"time"
)

// GameResult is one player's outcome in one finished game.
type GameResult struct {
	GameName   string    `json:"game_name"`
	PlayerName string    `json:"player_name"`
	IsWinner   bool      `json:"is_winner"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the aggregated leaderboard.
type LeaderboardEntry struct {
	PlayerName string  `json:"player_name"`
	Games      int     `json:"games"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// PlayerStats is the aggregate record for a single player.
type PlayerStats struct {
	PlayerName string `json:"player_name"`
	Games      int    `json:"games"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}
