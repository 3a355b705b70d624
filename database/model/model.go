package model

import "time"

// Participant is the entitlement record of one Telegram account. It is created
// lazily on first interaction and holds only the most recent spin; the full
// history lives in Spin.
type Participant struct {
	Id     int64 `gorm:"primaryKey;autoIncrement:false"` // Telegram user id
	Agreed bool  `gorm:"not null;default:false"`

	// Profile snapshot refreshed on every interaction, used for reporting.
	DisplayName string `gorm:"type:varchar(255)"`
	Username    string `gorm:"type:varchar(255)"`

	// LastSpinAt is nil until the first accepted spin and is overwritten on
	// each following one. A participant with Agreed=false never has it set.
	LastPrize  string `gorm:"type:varchar(255)"`
	LastSpinAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Participant) HasSpun() bool {
	return p.LastSpinAt != nil
}

// Spin is one accepted spin, append-only. The entitlement check never reads
// this table; it exists for operator reporting.
type Spin struct {
	Id     int64 `gorm:"primaryKey"`
	UserId int64 `gorm:"index"`

	Prize  string `gorm:"type:varchar(255);not null"`
	IsLoss bool
	// ClaimCode is set on winning spins only; the user presents it to redeem
	// the prize.
	ClaimCode string `gorm:"type:varchar(64)"`

	DisplayName string    `gorm:"type:varchar(255)"`
	Username    string    `gorm:"type:varchar(255)"`
	SpunAt      time.Time `gorm:"not null;index"`
}
