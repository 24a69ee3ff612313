package models

import "time"

// SystemSetting stores runtime-configurable settings in DB, currently the
// base reference price used by the pricing engine.
type SystemSetting struct {
	Key         string    `gorm:"primaryKey;type:varchar(100)"`
	Value       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
