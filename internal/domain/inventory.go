package domain

import "time"

// Inventory holds the on-hand quantity for a single catalog item.
// Quantity never goes below zero; a depleted entry is deleted rather
// than stored with a negative value.
type Inventory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ItemID    int64     `gorm:"not null;uniqueIndex" json:"item_id" form:"item_id"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity" form:"quantity"`
	Item      *Item     `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns table name
func (Inventory) TableName() string {
	return "inventory"
}
