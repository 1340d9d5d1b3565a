package model

import "time"

// Character is a catalog template shared by all users.
type Character struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"character_id"`
	Name       string  `gorm:"uniqueIndex;size:100;not null" json:"name"`
	BaseHealth int     `gorm:"not null" json:"base_health"`
	BaseDamage int     `gorm:"not null" json:"base_damage"`
	BaseSpeed  float64 `gorm:"not null" json:"base_speed"`
}

// UserCharacter links a user to a catalog character. The composite primary
// key makes a (user, character) pair unique.
type UserCharacter struct {
	UserID      int64      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CharacterID int64      `gorm:"primaryKey;autoIncrement:false;index" json:"character_id"`
	Level       int        `gorm:"not null" json:"level"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Character   *Character `gorm:"foreignKey:CharacterID;constraint:OnDelete:CASCADE" json:"character,omitempty"`
}
