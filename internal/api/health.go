package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/infinitepl/infinite/internal/webserver"
)

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func registerHealthRoutes() {
	webserver.ApiGET("/health", health)
}

func health(c echo.Context) error {
	sqlDB, err := GetDB(c).DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		zap.L().Error("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, healthStatus{Status: "unavailable", Database: err.Error()})
	}
	return ok(c, healthStatus{Status: "ok", Database: "ok"})
}
