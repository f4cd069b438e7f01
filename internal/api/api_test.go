package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/careloop/medinventory/config"
	"github.com/careloop/medinventory/internal/app"
	"github.com/careloop/medinventory/internal/domain"
	"github.com/careloop/medinventory/internal/webserver"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	setupOnce sync.Once
	testApp   *app.Application
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled connection to :memory: would open a fresh database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

// newTestEnv initializes the web server once and swaps in a fresh
// in-memory database per test.
func newTestEnv(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	setupOnce.Do(func() {
		testApp = app.NewApplication(config.DefaultAppConfig)
		webserver.Init(testApp)
		InitRouter()
	})
	db := openTestDB(t)
	testApp.OverrideDB(db)
	return webserver.Instance().Echo(), db
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func seedItem(t *testing.T, db *gorm.DB, name string, cost float64) domain.Item {
	t.Helper()
	item := domain.Item{
		Name:      name,
		ItemType:  "Defibrillator",
		Cost:      cost,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedStock(t *testing.T, db *gorm.DB, itemID int64, quantity int) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Inventory{
		ItemID:    itemID,
		Quantity:  quantity,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}).Error)
}

func TestRootLiveness(t *testing.T) {
	e, _ := newTestEnv(t)
	rec := doJSON(t, e, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Medical Inventory Management System API", decodeBody(t, rec)["message"])
}

func TestCreateAndGetItem(t *testing.T) {
	e, db := newTestEnv(t)

	rec := doJSON(t, e, http.MethodPost, "/api/items", map[string]interface{}{
		"name":        "Defibrillator - AED",
		"item_type":   "Defibrillator",
		"cost":        1500.00,
		"description": "Automated external defibrillator",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, "Defibrillator - AED", created["name"])

	var item domain.Item
	require.NoError(t, db.Where("name = ?", "Defibrillator - AED").First(&item).Error)

	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1500.00, decodeBody(t, rec)["cost"])
}

func TestCreateItemDuplicateName(t *testing.T) {
	e, db := newTestEnv(t)
	seedItem(t, db, "Ventilator - ICU", 35000.00)

	rec := doJSON(t, e, http.MethodPost, "/api/items", map[string]interface{}{
		"name":      "Ventilator - ICU",
		"item_type": "Ventilator",
		"cost":      36000.00,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ITEM_EXISTS", decodeBody(t, rec)["code"])

	// No row was added.
	var count int64
	db.Model(&domain.Item{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateItemValidation(t *testing.T) {
	e, _ := newTestEnv(t)
	rec := doJSON(t, e, http.MethodPost, "/api/items", map[string]interface{}{"cost": 10.0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItemPartial(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Dialysis Machine", 28000.00)

	rec := doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/items/%d", item.ID), map[string]interface{}{
		"cost": 29500.00,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.Item
	require.NoError(t, db.First(&updated, item.ID).Error)
	assert.Equal(t, 29500.00, updated.Cost)
	assert.Equal(t, "Dialysis Machine", updated.Name)
	assert.Equal(t, "Defibrillator", updated.ItemType)
}

func TestUpdateItemNotFound(t *testing.T) {
	e, _ := newTestEnv(t)
	rec := doJSON(t, e, http.MethodPut, "/api/items/99999", map[string]interface{}{"cost": 1.0})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteItemBlockedByInventory(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Anesthesia Machine", 55000.00)
	seedStock(t, db, item.ID, 3)

	rec := doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/items/%d", item.ID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ITEM_IN_INVENTORY", decodeBody(t, rec)["code"])

	// The item persists.
	var count int64
	db.Model(&domain.Item{}).Where("id = ?", item.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestDeleteItem(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Surgical Table - Electric", 25000.00)

	rec := doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/items/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&domain.Item{}).Where("id = ?", item.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestDeleteItemWithOrderHistory(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Defibrillator - AED", 1500.00)
	seedStock(t, db, item.ID, 5)

	rec := doJSON(t, e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"item_id": item.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Clear the stock; historical order lines alone do not block the
	// delete, they keep only the bare item id.
	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/inventory/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/items/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var lineCount int64
	db.Model(&domain.OrderItem{}).Where("item_id = ?", item.ID).Count(&lineCount)
	assert.EqualValues(t, 1, lineCount)
}

func TestAddStockAccumulates(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Patient Monitor - Multi-parameter", 8000.00)

	rec := doJSON(t, e, http.MethodPost, "/api/inventory", map[string]interface{}{
		"item_id": item.ID, "quantity": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/inventory", map[string]interface{}{
		"item_id": item.ID, "quantity": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8.0, decodeBody(t, rec)["quantity"])

	var entry domain.Inventory
	require.NoError(t, db.Where("item_id = ?", item.ID).First(&entry).Error)
	assert.Equal(t, 8, entry.Quantity)
}

func TestAddStockUnknownItem(t *testing.T) {
	e, _ := newTestEnv(t)
	rec := doJSON(t, e, http.MethodPost, "/api/inventory", map[string]interface{}{
		"item_id": 99999, "quantity": 5,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", decodeBody(t, rec)["code"])
}

func TestSetQuantityClampsNegative(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Ultrasound System - Portable", 45000.00)
	seedStock(t, db, item.ID, 4)

	rec := doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/inventory/%d", item.ID), map[string]interface{}{
		"quantity": -5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decodeBody(t, rec)["quantity"])

	var entry domain.Inventory
	require.NoError(t, db.Where("item_id = ?", item.ID).First(&entry).Error)
	assert.Equal(t, 0, entry.Quantity)
}

func TestRemoveStockPartial(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "X-Ray Machine - Digital", 120000.00)
	seedStock(t, db, item.ID, 10)

	rec := doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/inventory/%d?quantity=4", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entry domain.Inventory
	require.NoError(t, db.Where("item_id = ?", item.ID).First(&entry).Error)
	assert.Equal(t, 6, entry.Quantity)
}

func TestRemoveStockBelowZeroDeletesEntry(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "CT Scanner - 64 Slice", 800000.00)
	seedStock(t, db, item.ID, 3)

	// Removing more than on hand deletes the record instead of storing
	// a negative value.
	rec := doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/inventory/%d?quantity=5", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&domain.Inventory{}).Where("item_id = ?", item.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestRemoveStockEntireEntry(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "MRI Machine - 3T", 1500000.00)
	seedStock(t, db, item.ID, 2)

	rec := doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/inventory/%d", item.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&domain.Inventory{}).Where("item_id = ?", item.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestRemoveStockNotFound(t *testing.T) {
	e, _ := newTestEnv(t)
	rec := doJSON(t, e, http.MethodDelete, "/api/inventory/99999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListInventoryEmbedsItem(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Ventilator - ICU", 35000.00)
	seedStock(t, db, item.ID, 7)

	rec := doJSON(t, e, http.MethodGet, "/api/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	embedded, ok := entries[0]["item"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Ventilator - ICU", embedded["name"])
}

func TestCreateOrder(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Defibrillator - AED", 1500.00)
	seedStock(t, db, item.ID, 3)

	rec := doJSON(t, e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"item_id": item.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, 3000.00, body["total_amount"])

	var entry domain.Inventory
	require.NoError(t, db.Where("item_id = ?", item.ID).First(&entry).Error)
	assert.Equal(t, 1, entry.Quantity)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Defibrillator - AED", 1500.00)
	seedStock(t, db, item.ID, 1)

	rec := doJSON(t, e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"item_id": item.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Contains(t, body["message"], "Defibrillator - AED")
}

func TestCreateOrderUnknownItem(t *testing.T) {
	e, _ := newTestEnv(t)
	rec := doJSON(t, e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"item_id": 99999, "quantity": 1}},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrderEmptyLines(t *testing.T) {
	e, _ := newTestEnv(t)
	rec := doJSON(t, e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeeklyStatsEndpoint(t *testing.T) {
	e, db := newTestEnv(t)
	item := seedItem(t, db, "Defibrillator - AED", 1500.00)
	seedStock(t, db, item.ID, 5)

	rec := doJSON(t, e, http.MethodPost, "/api/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"item_id": item.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/orders/stats/weekly?weeks=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 1.0, stats[0]["total_orders"])
	assert.Equal(t, 3000.00, stats[0]["total_amount"])
}

func TestListItemsPagination(t *testing.T) {
	e, db := newTestEnv(t)
	for i := 0; i < 5; i++ {
		seedItem(t, db, fmt.Sprintf("Item %d", i), float64(100+i))
	}

	rec := doJSON(t, e, http.MethodGet, "/api/items?skip=2&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}
