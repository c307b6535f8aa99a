package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/avalon/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGameResult{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// RecordResult 保存单个玩家的对局结果
func (p *GormPostgreSQL) RecordResult(gameName, playerName string, isWinner bool, score int) error {
	result := models.GormGameResult{
		GameName:   gameName,
		PlayerName: playerName,
		IsWinner:   isWinner,
		Score:      score,
	}
	return p.db.Create(&result).Error
}

// Leaderboard 按胜场排序的排行榜
func (p *GormPostgreSQL) Leaderboard(gameName string) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry

	err := p.db.Raw(
		`
        SELECT
            player_name,
            COUNT(*) as games,
            SUM(CASE WHEN is_winner THEN 1 ELSE 0 END) as wins,
            ROUND(SUM(CASE WHEN is_winner THEN 1 ELSE 0 END)::numeric / COUNT(*), 3) as win_rate
        FROM gorm_game_results
        WHERE game_name = ? AND deleted_at IS NULL
        GROUP BY player_name
        ORDER BY wins DESC, games ASC`,
		gameName,
	).Scan(&entries).Error

	return entries, err
}

// PlayerStats 单个玩家统计
func (p *GormPostgreSQL) PlayerStats(gameName, playerName string) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.Raw(
		`
        SELECT
            player_name,
            COUNT(*) as games,
            SUM(CASE WHEN is_winner THEN 1 ELSE 0 END) as wins,
            SUM(CASE WHEN is_winner THEN 0 ELSE 1 END) as losses
        FROM gorm_game_results
        WHERE game_name = ? AND player_name = ? AND deleted_at IS NULL
        GROUP BY player_name`,
		gameName, playerName,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.PlayerName == "" {
		return nil, ErrRecordNotFound
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
