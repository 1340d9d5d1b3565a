package model

// EquipmentCategory is the slot family of an equipment template.
type EquipmentCategory string

const (
	CategoryWeapon EquipmentCategory = "weapon"
	CategoryArmor  EquipmentCategory = "armor"
	CategoryRing   EquipmentCategory = "ring"
)

// Valid reports whether c is a known category.
func (c EquipmentCategory) Valid() bool {
	switch c {
	case CategoryWeapon, CategoryArmor, CategoryRing:
		return true
	}
	return false
}

// EquipmentTemplate is a shared catalog entry carrying flat stat bonuses.
type EquipmentTemplate struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"equipment_id"`
	Name        string            `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Category    EquipmentCategory `gorm:"size:16;not null" json:"category"`
	Description string            `gorm:"size:255" json:"description"`
	HealthBonus int               `gorm:"not null" json:"health_bonus"`
	DamageBonus int               `gorm:"not null" json:"damage_bonus"`
	SpeedBonus  float64           `gorm:"not null" json:"speed_bonus"`
}

// EquipmentInstance is one user's copy of a template.
type EquipmentInstance struct {
	ID         int64              `gorm:"primaryKey;autoIncrement" json:"instance_id"`
	UserID     int64              `gorm:"index:idx_instance_user;not null" json:"user_id"`
	TemplateID int64              `gorm:"index;not null" json:"equipment_id"`
	Level      int                `gorm:"not null" json:"level"`
	Durability int                `gorm:"not null" json:"durability"` // 0-100
	IsEquipped bool               `gorm:"not null" json:"is_equipped"`
	User       *User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Template   *EquipmentTemplate `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"template,omitempty"`
}

// Bonuses is the aggregate stat bonus of a user's equipped instances.
type Bonuses struct {
	Health int     `json:"total_health_bonus"`
	Damage int     `json:"total_damage_bonus"`
	Speed  float64 `json:"total_speed_bonus"`
}

// SumBonuses adds up the template bonuses of the equipped instances.
// Templates must already be loaded; instances without one are skipped.
func SumBonuses(instances []EquipmentInstance) Bonuses {
	var b Bonuses
	for _, inst := range instances {
		if !inst.IsEquipped || inst.Template == nil {
			continue
		}
		b.Health += inst.Template.HealthBonus
		b.Damage += inst.Template.DamageBonus
		b.Speed += inst.Template.SpeedBonus
	}
	return b
}
