package models

import "time"

// StorageEntry is one named JSON document in the relational key/value table.
type StorageEntry struct {
	Key       string    `gorm:"primaryKey;type:varchar(191)" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
