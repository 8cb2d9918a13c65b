package handlers

import (
	"context"
	"net/http"
	"scaffold-api/app/server/types"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

type healthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Uptime      float64           `json:"uptime"`
	Environment string            `json:"environment,omitempty"`
	Services    map[string]string `json:"services,omitempty"`
}

func (a *App) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, &healthStatus{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(a.started).Seconds(),
	})
}

// APIHealthCheck also probes the database and, when configured, redis.
func (a *App) APIHealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	res := &healthStatus{
		Status:      "OK",
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(a.started).Seconds(),
		Environment: a.env,
		Services:    map[string]string{},
	}
	statusCode := http.StatusOK

	// 数据库
	if err := a.pingDB(ctx); err != nil {
		a.l.Error("database health check failed", zap.Error(err))
		res.Status = "DEGRADED"
		res.Services["database"] = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else {
		res.Services["database"] = "healthy"
	}

	// 缓存不可用时仍可服务
	if a.rdb == nil {
		res.Services["cache"] = "disabled"
	} else if err := a.rdb.Ping(ctx).Err(); err != nil {
		a.l.Warn("redis health check failed", zap.Error(err))
		res.Services["cache"] = "unhealthy"
	} else {
		res.Services["cache"] = "healthy"
	}

	return c.JSON(statusCode, res)
}

func (a *App) pingDB(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, &types.Response{
		Success: true,
		Message: "API is working!",
		Data: map[string]any{
			"version": apiVersion,
			"endpoints": map[string]string{
				"health": "/api/health",
				"auth":   "/api/auth",
				"users":  "/api/users",
			},
		},
	})
}
