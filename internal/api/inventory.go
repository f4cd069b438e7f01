package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/careloop/medinventory/internal/domain"
	"github.com/careloop/medinventory/internal/webserver"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type inventoryAddPayload struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"gte=0"`
}

type inventorySetPayload struct {
	Quantity int `json:"quantity"`
}

type inventoryRemovalResponse struct {
	Message  string `json:"message"`
	Quantity int    `json:"quantity,omitempty"`
}

// registerInventoryRoutes registers stock management endpoints
func registerInventoryRoutes() {
	webserver.ApiGET("/inventory", listInventory)
	webserver.ApiGET("/inventory/:item_id", getInventoryEntry)
	webserver.ApiPOST("/inventory", addStock)
	webserver.ApiPUT("/inventory/:item_id", setQuantity)
	webserver.ApiDELETE("/inventory/:item_id", removeStock)
}

func listInventory(c echo.Context) error {
	var entries []domain.Inventory
	if err := GetDB(c).Preload("Item").Find(&entries).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory", err.Error())
	}
	return ok(c, entries)
}

func getInventoryEntry(c echo.Context) error {
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID", nil)
	}

	var entry domain.Inventory
	err = GetDB(c).Preload("Item").Where("item_id = ?", itemID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "INVENTORY_NOT_FOUND", "Inventory entry not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory", err.Error())
	}
	return ok(c, entry)
}

// addStock upserts stock for an item: an existing entry accumulates the
// added quantity, otherwise a new entry is created.
func addStock(c echo.Context) error {
	var payload inventoryAddPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse inventory parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var item domain.Item
	if err := GetDB(c).Where("id = ?", payload.ItemID).First(&item).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query item", err.Error())
	}

	var entry domain.Inventory
	err := GetDB(c).Where("item_id = ?", payload.ItemID).First(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = domain.Inventory{
			ItemID:    payload.ItemID,
			Quantity:  payload.Quantity,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := GetDB(c).Create(&entry).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create inventory entry", err.Error())
		}
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory", err.Error())
	default:
		entry.Quantity += payload.Quantity
		entry.UpdatedAt = time.Now()
		if err := GetDB(c).Save(&entry).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update inventory entry", err.Error())
		}
	}

	entry.Item = &item
	return ok(c, entry)
}

// setQuantity overwrites the on-hand quantity, clamping negative values
// to zero.
func setQuantity(c echo.Context) error {
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID", nil)
	}

	var payload inventorySetPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse inventory parameters", nil)
	}

	var entry domain.Inventory
	err = GetDB(c).Preload("Item").Where("item_id = ?", itemID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "INVENTORY_NOT_FOUND", "Inventory entry not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory", err.Error())
	}

	entry.Quantity = payload.Quantity
	if entry.Quantity < 0 {
		entry.Quantity = 0
	}
	entry.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&entry).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update inventory entry", err.Error())
	}
	return ok(c, entry)
}

// removeStock removes the whole entry when no quantity parameter is
// given; with a quantity it decrements, deleting the entry once the
// result drops to zero or below.
func removeStock(c echo.Context) error {
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID", nil)
	}

	var entry domain.Inventory
	err = GetDB(c).Where("item_id = ?", itemID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "INVENTORY_NOT_FOUND", "Inventory entry not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query inventory", err.Error())
	}

	quantityParam := c.QueryParam("quantity")
	if quantityParam == "" {
		if err := GetDB(c).Delete(&entry).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete inventory entry", err.Error())
		}
		return ok(c, inventoryRemovalResponse{Message: "Item removed from inventory"})
	}

	quantity, err := strconv.Atoi(quantityParam)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid quantity parameter", nil)
	}

	entry.Quantity -= quantity
	if entry.Quantity <= 0 {
		if err := GetDB(c).Delete(&entry).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete inventory entry", err.Error())
		}
		return ok(c, inventoryRemovalResponse{Message: "Item removed from inventory"})
	}

	entry.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&entry).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update inventory entry", err.Error())
	}
	return ok(c, inventoryRemovalResponse{
		Message:  fmt.Sprintf("Removed %d items from inventory", quantity),
		Quantity: entry.Quantity,
	})
}
