package database

import (
	"roulette-bot/database/model"

	"gorm.io/gorm"
)

// GetParticipant returns the record for userId, or (nil, nil) when the user
// has never interacted. Any other outcome is a storage error and is returned
// as such, never as an empty record.
func GetParticipant(userId int64) (*model.Participant, error) {
	var p model.Participant
	err := db.Where("id = ?", userId).First(&p).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func SaveParticipant(p *model.Participant) error {
	return db.Save(p).Error
}

// RecordAcceptedSpin persists the updated participant together with its audit
// row in a single transaction, so the entitlement record and the history can
// never disagree.
func RecordAcceptedSpin(p *model.Participant, s *model.Spin) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		return tx.Create(s).Error
	})
}

func DeleteParticipant(userId int64) error {
	return db.Where("id = ?", userId).Delete(&model.Participant{}).Error
}

// DeleteAllParticipants wipes entitlement state and the audit trail.
func DeleteAllParticipants() error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Participant{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&model.Spin{}).Error
	})
}
