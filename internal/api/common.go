package api

import (
	"net/http"
	"strconv"

	"github.com/careloop/medinventory/internal/webserver"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// GetDB returns the request-scoped database handle
func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

func ok(c echo.Context, v interface{}) error {
	return c.JSON(http.StatusOK, v)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, errorResponse{Code: code, Message: message, Details: details})
}

func handleValidationError(c echo.Context, err error) error {
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// parseSkipLimit reads offset pagination parameters with the listing
// defaults (skip 0, limit 100, hard cap 1000).
func parseSkipLimit(c echo.Context) (int, int) {
	skip := 0
	if v, err := strconv.Atoi(c.QueryParam("skip")); err == nil && v > 0 {
		skip = v
	}
	limit := 100
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 1000 {
		limit = v
	}
	return skip, limit
}
