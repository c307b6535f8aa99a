package persistence

import (
	"fmt"

	"github.com/wfunc/avalon/models"
)

// Store 对局结果存储接口
type Store interface {
	RecordResult(gameName, playerName string, isWinner bool, score int) error
	Leaderboard(gameName string) ([]models.LeaderboardEntry, error)
	PlayerStats(gameName, playerName string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
