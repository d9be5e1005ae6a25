package models

import "gorm.io/gorm"

func All() []any {
	return []any{
		&User{},
		&AuthToken{},
		&OtpRecord{},
		&PendingFlow{},
		&ServiceLocation{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&Cart{},
		&CartItem{},
		&Address{},
	}
}

// AutoMigrate creates the schema. The one-default-address rule gets a partial unique index where
// the dialect supports one; on mysql it rests on the locking transaction alone.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	if db.Dialector.Name() == "mysql" {
		return nil
	}
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_addresses_one_default ON addresses (user_id) WHERE is_default",
	).Error
}
