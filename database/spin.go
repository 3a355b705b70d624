package database

import (
	"time"

	"roulette-bot/database/model"
)

func CountSpins() (int64, error) {
	var count int64
	err := db.Model(&model.Spin{}).Count(&count).Error
	return count, err
}

func CountSpinsSince(t time.Time) (int64, error) {
	var count int64
	err := db.Model(&model.Spin{}).Where("spun_at >= ?", t).Count(&count).Error
	return count, err
}

// GetRecentSpins retrieves the most recent accepted spins, newest first.
func GetRecentSpins(limit int) ([]*model.Spin, error) {
	var spins []*model.Spin
	err := db.Order("spun_at desc").Limit(limit).Find(&spins).Error
	if err != nil {
		return nil, err
	}
	return spins, nil
}

func GetSpinsByUser(userId int64) ([]*model.Spin, error) {
	var spins []*model.Spin
	err := db.Where("user_id = ?", userId).Order("spun_at desc").Find(&spins).Error
	if err != nil {
		return nil, err
	}
	return spins, nil
}
