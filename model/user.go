package model

import "time"

// Role is a user's privilege tier. Roles are compared by explicit allow-sets,
// never by rank.
type Role string

const (
	RoleUser       Role = "user"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents a player account.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Username     string    `gorm:"uniqueIndex;size:20;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	Coins        int64     `gorm:"not null" json:"coins"`
	Crystals     int64     `gorm:"not null" json:"crystals"`
	Role         Role      `gorm:"size:16;not null" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"` // false = blocked
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
