package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated.
var allModels = []interface{}{
	&Entity{},
	&HistoryEntry{},
	&BlockLog{},
	&InventoryLog{},
	&EntityLog{},
	&SignLog{},
	&ChatLog{},
	&SchemaVersion{},
}

// AutoMigrate creates or updates all tables and stamps the schema version.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels...); err != nil {
		return err
	}
	var count int64
	if err := db.Model(&SchemaVersion{}).Where("version = ?", CurrentSchemaVersion).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return db.Create(&SchemaVersion{Version: CurrentSchemaVersion}).Error
	}
	return nil
}
