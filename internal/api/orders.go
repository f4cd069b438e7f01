package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/careloop/medinventory/internal/ordering"
	"github.com/careloop/medinventory/internal/webserver"
	"github.com/labstack/echo/v4"
)

type orderLinePayload struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type orderPayload struct {
	Items []orderLinePayload `json:"items" validate:"required,min=1,dive"`
}

// registerOrderRoutes registers order placement and statistics endpoints
func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiPOST("/orders", createOrder)
	webserver.ApiGET("/orders/stats/weekly", weeklyOrderStats)
}

func listOrders(c echo.Context) error {
	skip, limit := parseSkipLimit(c)

	svc := ordering.NewService(GetDB(c))
	orders, err := svc.ListOrders(c.Request().Context(), skip, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return ok(c, orders)
}

func createOrder(c echo.Context) error {
	var payload orderPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	lines := make([]ordering.OrderLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		lines = append(lines, ordering.OrderLine{ItemID: item.ItemID, Quantity: item.Quantity})
	}

	svc := ordering.NewService(GetDB(c))
	order, err := svc.PlaceOrder(c.Request().Context(), lines)
	if err != nil {
		var notFound *ordering.NotFoundError
		if errors.As(err, &notFound) {
			return fail(c, http.StatusNotFound, "ITEM_NOT_FOUND", notFound.Error(), nil)
		}
		var insufficient *ordering.InsufficientStockError
		if errors.As(err, &insufficient) {
			return fail(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", insufficient.Error(),
				map[string]interface{}{"item_id": insufficient.ItemID, "item_name": insufficient.ItemName})
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to place order", err.Error())
	}
	return ok(c, order)
}

func weeklyOrderStats(c echo.Context) error {
	weeks := 12
	if v, err := strconv.Atoi(c.QueryParam("weeks")); err == nil && v > 0 {
		weeks = v
	}

	svc := ordering.NewService(GetDB(c))
	stats, err := svc.WeeklyStats(c.Request().Context(), weeks)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute statistics", err.Error())
	}
	return ok(c, stats)
}
