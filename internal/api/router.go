package api

import (
	"net/http"

	"github.com/careloop/medinventory/internal/webserver"
	"github.com/labstack/echo/v4"
)

// InitRouter registers all REST routes on the web server
func InitRouter() {
	webserver.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, messageResponse{Message: "Medical Inventory Management System API"})
	})

	registerItemRoutes()
	registerInventoryRoutes()
	registerOrderRoutes()
}
