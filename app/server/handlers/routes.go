package handlers

import (
	"scaffold-api/app/server/middlewares"
	"scaffold-api/app/server/models"

	"github.com/labstack/echo/v4"
)

func (a *App) RegisterHandlers(e *echo.Echo, auth *middlewares.Auth) {
	e.GET("/health", a.HealthCheck)

	api := e.Group("/api")
	api.GET("", a.Index)
	api.GET("/health", a.APIHealthCheck)

	// 认证
	api.POST("/auth/login", a.AuthLogin)
	api.GET("/auth/me", a.AuthMe, auth.Required())

	// 用户管理
	api.GET("/users", a.UserList, auth.Required(), auth.RequireRole(models.RoleAdmin, models.RoleModerator))
	api.GET("/users/stats", a.UserStats, auth.Required(), auth.RequireRole(models.RoleAdmin))
	api.GET("/users/:id", a.UserGet, auth.Required())
	api.POST("/users", a.UserCreate, auth.Optional())
	api.PUT("/users/:id", a.UserUpdate, auth.Required())
	api.PUT("/users/:id/password", a.UserPasswordUpdate, auth.Required())
	api.DELETE("/users/:id", a.UserDelete, auth.Required(), auth.RequireRole(models.RoleAdmin))
}
