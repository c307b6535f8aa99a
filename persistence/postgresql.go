package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/avalon/models"
)

// PostgreSQL 数据库实现（原生 database/sql，不经过 GORM）
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_results (
            id SERIAL PRIMARY KEY,
            game_name TEXT NOT NULL,
            player_name TEXT NOT NULL,
            is_winner BOOLEAN NOT NULL,
            score INTEGER DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_results_game_player
        ON game_results (game_name, player_name)`)
	return err
}

// RecordResult 保存单个玩家的对局结果
func (p *PostgreSQL) RecordResult(gameName, playerName string, isWinner bool, score int) error {
	_, err := p.db.Exec(
		`INSERT INTO game_results (game_name, player_name, is_winner, score) VALUES ($1, $2, $3, $4)`,
		gameName, playerName, isWinner, score,
	)
	return err
}

// Leaderboard 按胜场排序的排行榜
func (p *PostgreSQL) Leaderboard(gameName string) ([]models.LeaderboardEntry, error) {
	rows, err := p.db.Query(
		`
        SELECT
            player_name,
            COUNT(*) as games,
            SUM(CASE WHEN is_winner THEN 1 ELSE 0 END) as wins
        FROM game_results
        WHERE game_name = $1
        GROUP BY player_name
        ORDER BY wins DESC, games ASC`,
		gameName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.Games, &e.Wins); err != nil {
			return nil, err
		}
		if e.Games > 0 {
			e.WinRate = float64(e.Wins) / float64(e.Games)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PlayerStats 单个玩家统计
func (p *PostgreSQL) PlayerStats(gameName, playerName string) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	err := p.db.QueryRow(
		`
        SELECT
            player_name,
            COUNT(*) as games,
            SUM(CASE WHEN is_winner THEN 1 ELSE 0 END) as wins,
            SUM(CASE WHEN is_winner THEN 0 ELSE 1 END) as losses
        FROM game_results
        WHERE game_name = $1 AND player_name = $2
        GROUP BY player_name`,
		gameName, playerName,
	).Scan(&stats.PlayerName, &stats.Games, &stats.Wins, &stats.Losses)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
