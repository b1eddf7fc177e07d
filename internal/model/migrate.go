package model

import "gorm.io/gorm"

// AutoMigrate creates or updates the tables used by the postgres state backend.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Observation{})
}
