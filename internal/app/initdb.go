package app

import (
	"math/rand"
	"time"

	"github.com/careloop/medinventory/internal/domain"
	"github.com/careloop/medinventory/pkg/common"
	"go.uber.org/zap"
)

type catalogSeed struct {
	Name        string
	ItemType    string
	Cost        float64
	Description string
}

var defaultCatalog = []catalogSeed{
	{"MRI Machine - 3T", "MRI Machine", 1500000.00, "High-field 3 Tesla MRI scanner for advanced imaging"},
	{"CT Scanner - 64 Slice", "CT Scanner", 800000.00, "64-slice computed tomography scanner"},
	{"X-Ray Machine - Digital", "X-Ray Machine", 120000.00, "Digital radiography system"},
	{"Ultrasound System - Portable", "Ultrasound Machine", 45000.00, "Portable ultrasound imaging system"},
	{"Ventilator - ICU", "Ventilator", 35000.00, "Intensive care unit ventilator"},
	{"Defibrillator - AED", "Defibrillator", 1500.00, "Automated external defibrillator"},
	{"Patient Monitor - Multi-parameter", "Patient Monitor", 8000.00, "Multi-parameter patient monitoring system"},
	{"Surgical Table - Electric", "Surgical Equipment", 25000.00, "Electric adjustable surgical table"},
	{"Anesthesia Machine", "Anesthesia Equipment", 55000.00, "Modern anesthesia delivery system"},
	{"Dialysis Machine", "Dialysis Equipment", 28000.00, "Hemodialysis machine"},
}

// Initial stock levels aligned to defaultCatalog, sized to absorb the
// synthetic historical orders.
var defaultQuantities = []int{5, 8, 12, 15, 10, 25, 20, 8, 7, 10}

// checkInitialData seeds the catalog, inventory and synthetic order
// history on a first run. A non-empty items table disables seeding.
func (a *Application) checkInitialData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Errorf("could not seed database: %v", err)
		}
	}()

	var count int64
	if err := a.gormDB.Model(&domain.Item{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to query item count for seeding", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	zap.L().Info("database is empty, seeding initial data")
	items := a.checkCatalogItems()
	a.checkInventoryEntries(items)
	a.checkHistoricalOrders(items)
	zap.L().Info("database seeded",
		zap.Int("items", len(items)))
}

func (a *Application) checkCatalogItems() []domain.Item {
	created := make([]domain.Item, 0, len(defaultCatalog))
	for _, seed := range defaultCatalog {
		var item domain.Item
		err := a.gormDB.Where("name = ?", seed.Name).First(&item).Error
		if err != nil {
			item = domain.Item{
				Name:        seed.Name,
				ItemType:    seed.ItemType,
				Cost:        seed.Cost,
				Description: seed.Description,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}
			if err := a.gormDB.Create(&item).Error; err != nil {
				zap.L().Error("failed to create default item", zap.String("name", seed.Name), zap.Error(err))
				continue
			}
			zap.L().Info("initialized default item", zap.String("name", seed.Name))
		}
		created = append(created, item)
	}
	return created
}

func (a *Application) checkInventoryEntries(items []domain.Item) {
	for i, item := range items {
		quantity := 10
		if i < len(defaultQuantities) {
			quantity = defaultQuantities[i]
		}

		var count int64
		a.gormDB.Model(&domain.Inventory{}).Where("item_id = ?", item.ID).Count(&count)
		if count == 0 {
			entry := domain.Inventory{
				ItemID:    item.ID,
				Quantity:  quantity,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			if err := a.gormDB.Create(&entry).Error; err != nil {
				zap.L().Error("failed to create default inventory entry",
					zap.String("name", item.Name), zap.Error(err))
			}
		}
	}
}

// checkHistoricalOrders creates 1-3 synthetic orders per week over the
// past 12 weeks so the weekly statistics endpoint has data to report.
// Stock consumed by the synthetic history is clamped at zero.
func (a *Application) checkHistoricalOrders(items []domain.Item) {
	if len(items) == 0 {
		return
	}

	ordersCreated := 0
	for week := 0; week < 12; week++ {
		weekStart := time.Now().AddDate(0, 0, -7*(12-week))
		numOrders := 1 + rand.Intn(3)
		for i := 0; i < numOrders; i++ {
			orderDate := weekStart.
				AddDate(0, 0, rand.Intn(7)).
				Add(time.Duration(9+rand.Intn(9)) * time.Hour)

			numItems := 1 + rand.Intn(3)
			if numItems > len(items) {
				numItems = len(items)
			}
			picks := rand.Perm(len(items))[:numItems]

			order := domain.Order{
				ID:          common.UUIDint64(),
				OrderDate:   orderDate,
				TotalAmount: 0,
				CreatedAt:   time.Now(),
			}
			lines := make([]domain.OrderItem, 0, numItems)
			for _, idx := range picks {
				item := items[idx]
				quantity := 1 + rand.Intn(2)
				subtotal := item.Cost * float64(quantity)
				order.TotalAmount += subtotal
				lines = append(lines, domain.OrderItem{
					ItemID:    item.ID,
					Quantity:  quantity,
					UnitPrice: item.Cost,
					Subtotal:  subtotal,
				})
			}
			if len(lines) == 0 || order.TotalAmount <= 0 {
				continue
			}

			if err := a.gormDB.Create(&order).Error; err != nil {
				zap.L().Error("failed to create sample order", zap.Error(err))
				continue
			}
			for i := range lines {
				lines[i].OrderID = order.ID
				if err := a.gormDB.Create(&lines[i]).Error; err != nil {
					zap.L().Error("failed to create sample order item", zap.Error(err))
					continue
				}
				a.consumeSeedStock(lines[i].ItemID, lines[i].Quantity)
			}
			ordersCreated++
		}
	}
	zap.L().Info("initialized sample order history", zap.Int("orders", ordersCreated))
}

func (a *Application) consumeSeedStock(itemID int64, quantity int) {
	var entry domain.Inventory
	if err := a.gormDB.Where("item_id = ?", itemID).First(&entry).Error; err != nil {
		return
	}
	entry.Quantity -= quantity
	if entry.Quantity < 0 {
		entry.Quantity = 0
	}
	entry.UpdatedAt = time.Now()
	if err := a.gormDB.Save(&entry).Error; err != nil {
		zap.L().Error("failed to update seeded inventory", zap.Int64("item_id", itemID), zap.Error(err))
	}
}
