package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/careloop/medinventory/internal/app"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dbContextKey = "medinventory_db"

var server *WebServer

type WebServer struct {
	appCtx app.AppContext
	root   *echo.Echo
	api    *echo.Group
}

// Init creates the package-level web server instance
func Init(appCtx app.AppContext) {
	server = NewWebServer(appCtx)
}

// Instance returns the package-level web server
func Instance() *WebServer {
	return server
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	s := &WebServer{appCtx: appCtx}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.dbMiddleware)
	e.Use(requestLogger())
	e.JSONSerializer = NewJsoniterSerializer()
	e.Validator = NewWebValidator()

	s.root = e
	s.api = e.Group("/api")
	return s
}

// dbMiddleware scopes a database handle to the inbound request and
// makes it available to handlers via GetDB.
func (s *WebServer) dbMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(dbContextKey, s.appCtx.DB().WithContext(c.Request().Context()))
		return next(c)
	}
}

// GetDB returns the request-scoped database handle
func GetDB(c echo.Context) *gorm.DB {
	db, _ := c.Get(dbContextKey).(*gorm.DB)
	return db
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Info("http request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

// Echo exposes the underlying echo engine (used in tests)
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Listen starts the HTTP listener and blocks until ctx is cancelled,
// then shuts the server down gracefully.
func Listen(ctx context.Context) error {
	cfg := server.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	errch := make(chan error, 1)
	go func() {
		zap.S().Infof("starting web server on %s", addr)
		errch <- server.root.Start(addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.root.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return http.ErrServerClosed
	case err := <-errch:
		return err
	}
}

// GET registers a route on the server root
func GET(path string, h echo.HandlerFunc) {
	server.root.GET(path, h)
}

// ApiGET registers a GET route under the /api prefix
func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

// ApiPOST registers a POST route under the /api prefix
func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

// ApiPUT registers a PUT route under the /api prefix
func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

// ApiDELETE registers a DELETE route under the /api prefix
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}
