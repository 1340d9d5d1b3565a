package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated, parents first.
var allModels = []interface{}{
	&User{},
	&Character{},
	&UserCharacter{},
	&EquipmentTemplate{},
	&EquipmentInstance{},
	&AuditLog{},
}

// AutoMigrate creates or updates all tables in the given database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels...)
}
