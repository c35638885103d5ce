package model

import "time"

// Item is one row of the sqlite key-value store.
type Item struct {
	Key       string `gorm:"primaryKey;column:item_key"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (Item) TableName() string {
	return "kv_items"
}
