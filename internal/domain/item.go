package domain

import "time"

// Item is a catalog entry describing a type of medical equipment
type Item struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name" form:"name"`
	ItemType    string    `gorm:"size:100;not null" json:"item_type" form:"item_type"` // MRI Machine, X-Ray Machine, etc.
	Cost        float64   `gorm:"not null" json:"cost" form:"cost"`
	Description string    `gorm:"type:text" json:"description" form:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns table name
func (Item) TableName() string {
	return "items"
}
