package domain

var Tables = []interface{}{
	// Catalog
	&Item{},
	// Inventory
	&Inventory{},
	// Orders
	&Order{},
	&OrderItem{},
}
