package ordering

import "fmt"

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InsufficientStockError signals that the current inventory for an item
// cannot cover the requested order quantity.
type InsufficientStockError struct {
	ItemID   int64
	ItemName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient inventory for item %s", e.ItemName)
}
