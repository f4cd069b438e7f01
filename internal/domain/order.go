package domain

import "time"

// Order is a placed purchase event. TotalAmount is fixed at placement
// time as the sum of line item subtotals and is never recomputed.
type Order struct {
	ID          int64       `gorm:"primaryKey" json:"id,string"`
	OrderDate   time.Time   `gorm:"not null;index" json:"order_date"`
	TotalAmount float64     `gorm:"not null" json:"total_amount"`
	OrderItems  []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TableName returns table name
func (Order) TableName() string {
	return "orders"
}

// OrderItem records a quantity of one item within one order. UnitPrice
// is a snapshot of the item cost at order time, decoupled from later
// catalog changes.
type OrderItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64   `gorm:"not null;index" json:"order_id,string"`
	ItemID    int64   `gorm:"not null;index" json:"item_id"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Subtotal  float64 `gorm:"not null" json:"subtotal"`
	Item      *Item   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// TableName returns table name
func (OrderItem) TableName() string {
	return "order_items"
}
