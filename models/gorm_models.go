package models

import (
	"gorm.io/gorm"
)

// GormGameResult 对局结果记录
type GormGameResult struct {
	gorm.Model
	GameName   string `gorm:"index;not null"`
	PlayerName string `gorm:"index;not null"`
	IsWinner   bool   `gorm:"not null"`
	Score      int    `gorm:"default:0"`
}
