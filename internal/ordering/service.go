package ordering

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/careloop/medinventory/internal/domain"
	"github.com/careloop/medinventory/pkg/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderLine is one requested (item, quantity) pair of an order.
type OrderLine struct {
	ItemID   int64
	Quantity int
}

// WeeklyStats is one Monday-aligned week bucket of the statistics
// rollup. Weeks without orders are absent from the result entirely.
type WeeklyStats struct {
	WeekStart   string         `json:"week_start"`
	WeekEnd     string         `json:"week_end"`
	TotalOrders int            `json:"total_orders"`
	TotalAmount float64        `json:"total_amount"`
	ItemCounts  map[string]int `json:"item_counts"`
}

// Service implements order placement and the statistics rollup on top
// of the shared relational store.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// PlaceOrder validates and places an order as a single unit of work.
//
// Validation runs read-only over ALL lines before any mutation: every
// referenced item must exist and its inventory must cover the requested
// quantity. Only then the order header, its line items and the
// inventory decrements are applied. Any failure rolls the whole
// transaction back, so either everything is durable or nothing is.
//
// The read pass and the write pass are not re-validated against each
// other; concurrent depletion of the same inventory between the two is
// an accepted race (see DESIGN.md).
func (s *Service) PlaceOrder(ctx context.Context, lines []OrderLine) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, errors.New("order must contain at least one line")
	}

	var placed *domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		type pricedLine struct {
			item     domain.Item
			quantity int
			subtotal float64
		}

		// Validation pass: all lines checked before any write.
		priced := make([]pricedLine, 0, len(lines))
		total := 0.0
		for _, line := range lines {
			var item domain.Item
			if err := tx.First(&item, line.ItemID).Error; err != nil {
				if stderrors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Entity: "item", ID: line.ItemID}
				}
				return errors.Wrap(err, "query item")
			}

			var entry domain.Inventory
			err := tx.Where("item_id = ?", line.ItemID).First(&entry).Error
			switch {
			case stderrors.Is(err, gorm.ErrRecordNotFound):
				return &InsufficientStockError{ItemID: item.ID, ItemName: item.Name}
			case err != nil:
				return errors.Wrap(err, "query inventory")
			case entry.Quantity < line.Quantity:
				return &InsufficientStockError{ItemID: item.ID, ItemName: item.Name}
			}

			subtotal := item.Cost * float64(line.Quantity)
			total += subtotal
			priced = append(priced, pricedLine{item: item, quantity: line.Quantity, subtotal: subtotal})
		}

		// Commit pass: header, line items, inventory decrements.
		order := &domain.Order{
			ID:          common.UUIDint64(),
			OrderDate:   time.Now(),
			TotalAmount: total,
			CreatedAt:   time.Now(),
		}
		if err := tx.Create(order).Error; err != nil {
			return errors.Wrap(err, "create order")
		}

		for i := range priced {
			line := &priced[i]
			orderItem := domain.OrderItem{
				OrderID:   order.ID,
				ItemID:    line.item.ID,
				Quantity:  line.quantity,
				UnitPrice: line.item.Cost,
				Subtotal:  line.subtotal,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return errors.Wrap(err, "create order item")
			}

			var entry domain.Inventory
			if err := tx.Where("item_id = ?", line.item.ID).First(&entry).Error; err != nil {
				return errors.Wrap(err, "reload inventory")
			}
			entry.Quantity -= line.quantity
			if entry.Quantity <= 0 {
				if err := tx.Delete(&entry).Error; err != nil {
					return errors.Wrap(err, "delete depleted inventory")
				}
			} else {
				entry.UpdatedAt = time.Now()
				if err := tx.Save(&entry).Error; err != nil {
					return errors.Wrap(err, "update inventory")
				}
			}

			item := line.item
			orderItem.Item = &item
			order.OrderItems = append(order.OrderItems, orderItem)
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order placed",
		zap.Int64("order_id", placed.ID),
		zap.Int("lines", len(placed.OrderItems)),
		zap.Float64("total_amount", placed.TotalAmount))
	return placed, nil
}

// ListOrders returns orders newest first with their line items and the
// referenced catalog items loaded in batched queries.
func (s *Service) ListOrders(ctx context.Context, skip, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.WithContext(ctx).
		Preload("OrderItems").
		Preload("OrderItems.Item").
		Order("order_date DESC").
		Offset(skip).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	return orders, nil
}

// WeeklyStats buckets orders of the lookback window by Monday-aligned
// ISO week. Buckets appear in first-seen order; weeks without orders
// are omitted. Line items and item names are resolved with batched IN
// queries rather than per-order lookups.
func (s *Service) WeeklyStats(ctx context.Context, weeks int) ([]WeeklyStats, error) {
	if weeks <= 0 {
		weeks = 12
	}
	since := time.Now().AddDate(0, 0, -7*weeks)

	var orders []domain.Order
	err := s.db.WithContext(ctx).
		Where("order_date >= ?", since).
		Order("order_date").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	if len(orders) == 0 {
		return []WeeklyStats{}, nil
	}

	orderIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}

	var lines []domain.OrderItem
	if err := s.db.WithContext(ctx).Where("order_id IN ?", orderIDs).Find(&lines).Error; err != nil {
		return nil, errors.Wrap(err, "query order items")
	}

	itemIDSet := make(map[int64]struct{})
	linesByOrder := make(map[int64][]domain.OrderItem)
	for _, line := range lines {
		itemIDSet[line.ItemID] = struct{}{}
		linesByOrder[line.OrderID] = append(linesByOrder[line.OrderID], line)
	}

	nameByItem := make(map[int64]string, len(itemIDSet))
	if len(itemIDSet) > 0 {
		itemIDs := make([]int64, 0, len(itemIDSet))
		for id := range itemIDSet {
			itemIDs = append(itemIDs, id)
		}
		var items []domain.Item
		if err := s.db.WithContext(ctx).Where("id IN ?", itemIDs).Find(&items).Error; err != nil {
			return nil, errors.Wrap(err, "query items")
		}
		for _, item := range items {
			nameByItem[item.ID] = item.Name
		}
	}

	buckets := make(map[string]*WeeklyStats)
	keys := make([]string, 0)
	for _, order := range orders {
		start := weekStart(order.OrderDate)
		key := start.Format("2006-01-02")
		bucket, ok := buckets[key]
		if !ok {
			bucket = &WeeklyStats{
				WeekStart:  key,
				WeekEnd:    start.AddDate(0, 0, 6).Format("2006-01-02"),
				ItemCounts: make(map[string]int),
			}
			buckets[key] = bucket
			keys = append(keys, key)
		}
		bucket.TotalOrders++
		bucket.TotalAmount += order.TotalAmount

		for _, line := range linesByOrder[order.ID] {
			name, ok := nameByItem[line.ItemID]
			if !ok {
				// Item was deleted after the order was placed; line
				// items keep only the bare id.
				name = fmt.Sprintf("item #%d", line.ItemID)
			}
			bucket.ItemCounts[name] += line.Quantity
		}
	}

	out := make([]WeeklyStats, 0, len(keys))
	for _, key := range keys {
		out = append(out, *buckets[key])
	}
	return out, nil
}

// weekStart truncates a timestamp to the Monday of its week.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := t.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
