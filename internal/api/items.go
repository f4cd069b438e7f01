package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/careloop/medinventory/internal/domain"
	"github.com/careloop/medinventory/internal/webserver"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type itemPayload struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	ItemType    string  `json:"item_type" validate:"required,min=1,max=100"`
	Cost        float64 `json:"cost" validate:"gte=0"`
	Description string  `json:"description" validate:"omitempty"`
}

type itemUpdatePayload struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	ItemType    *string  `json:"item_type" validate:"omitempty,min=1,max=100"`
	Cost        *float64 `json:"cost" validate:"omitempty,gte=0"`
	Description *string  `json:"description"`
}

// registerItemRoutes registers catalog CRUD endpoints
func registerItemRoutes() {
	webserver.ApiGET("/items", listItems)
	webserver.ApiGET("/items/:id", getItem)
	webserver.ApiPOST("/items", createItem)
	webserver.ApiPUT("/items/:id", updateItem)
	webserver.ApiDELETE("/items/:id", deleteItem)
}

func listItems(c echo.Context) error {
	skip, limit := parseSkipLimit(c)

	var items []domain.Item
	if err := GetDB(c).Offset(skip).Limit(limit).Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query items", err.Error())
	}
	return ok(c, items)
}

func getItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID", nil)
	}

	var item domain.Item
	if err := GetDB(c).Where("id = ?", id).First(&item).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query item", err.Error())
	}
	return ok(c, item)
}

func createItem(c echo.Context) error {
	var payload itemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse item parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	payload.Name = strings.TrimSpace(payload.Name)

	var exists int64
	GetDB(c).Model(&domain.Item{}).Where("name = ?", payload.Name).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusBadRequest, "ITEM_EXISTS", "Item with this name already exists", nil)
	}

	item := domain.Item{
		Name:        payload.Name,
		ItemType:    strings.TrimSpace(payload.ItemType),
		Cost:        payload.Cost,
		Description: payload.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := GetDB(c).Create(&item).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create item", err.Error())
	}
	return ok(c, item)
}

func updateItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID", nil)
	}

	var payload itemUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse item parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var item domain.Item
	if err := GetDB(c).Where("id = ?", id).First(&item).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query item", err.Error())
	}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name != item.Name {
			var exists int64
			GetDB(c).Model(&domain.Item{}).Where("name = ? AND id != ?", name, id).Count(&exists)
			if exists > 0 {
				return fail(c, http.StatusBadRequest, "ITEM_EXISTS", "Item with this name already exists", nil)
			}
			item.Name = name
		}
	}
	if payload.ItemType != nil {
		item.ItemType = strings.TrimSpace(*payload.ItemType)
	}
	if payload.Cost != nil {
		item.Cost = *payload.Cost
	}
	if payload.Description != nil {
		item.Description = *payload.Description
	}
	item.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&item).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update item", err.Error())
	}
	return ok(c, item)
}

func deleteItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid item ID", nil)
	}

	var item domain.Item
	if err := GetDB(c).Where("id = ?", id).First(&item).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query item", err.Error())
	}

	// Items still referenced by an inventory entry cannot be removed.
	// Historical order lines keep the bare item id and do not block.
	var inventoryCount int64
	GetDB(c).Model(&domain.Inventory{}).Where("item_id = ?", id).Count(&inventoryCount)
	if inventoryCount > 0 {
		return fail(c, http.StatusBadRequest, "ITEM_IN_INVENTORY",
			"Cannot delete item that exists in inventory. Remove from inventory first.", nil)
	}

	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Item{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete item", err.Error())
	}
	return ok(c, messageResponse{Message: "Item deleted successfully"})
}
