package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"scaffold-api/app/server/apidocs"
	"scaffold-api/app/server/cache"
	"scaffold-api/app/server/handlers"
	"scaffold-api/app/server/inits"
	"scaffold-api/app/server/jwt"
	"scaffold-api/app/server/middlewares"
	"scaffold-api/app/server/password"
	"scaffold-api/app/server/store"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	cfg, err := inits.Config()
	if err != nil {
		log.Fatal(fmt.Errorf("error loading config: %w", err))
	}

	// 初始化日志
	l, err := inits.Logger(!cfg.System.IsProd, cfg.System.LogLevel)
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing logger: %w", err))
	}
	defer func() { _ = l.Sync() }()

	// 切换日志系统
	l.Debug("logger initialized", zap.String("environment", cfg.System.Environment))

	// 初始化数据库连接
	db, err := inits.DB(cfg.System.DBDriver, cfg.System.DBConnectionString, cfg.System.IsProd)
	if err != nil {
		l.Fatal("error initializing DB connection", zap.Error(err))
	}

	// 初始化密码哈希
	hasher, err := password.New(cfg.Security.PasswordHasher)
	if err != nil {
		l.Fatal("error initializing password hasher", zap.Error(err))
	}

	// 初始化管理员账户
	if created, err := inits.SeedAdmin(context.Background(), db, hasher, cfg.Security.InitAdminPassword); err != nil {
		l.Fatal("error creating admin account", zap.Error(err))
	} else if created {
		l.Info("admin account created", zap.String("username", "admin"))
	}

	// 初始化 redis 连接
	rdb, err := inits.Redis(cfg.System.RedisConnectionString)
	if err != nil {
		l.Fatal("error initializing Redis connection", zap.Error(err))
	} else if rdb == nil {
		l.Info("redis not configured, role cache disabled")
	}

	// 初始化 JWT
	j, err := jwt.New(cfg.Security.SignatureSecretKey, cfg.Security.TokenTTL)
	if err != nil {
		l.Fatal("error initializing JWT", zap.Error(err))
	}

	// 准备 handler app
	users := store.New(db, hasher)
	roles := cache.NewUserRoles(rdb, users, l)
	auth := middlewares.NewAuth(j, roles, l)
	handlerApp := handlers.NewApp(l, db, rdb, j, users, roles, cfg)

	// 准备 echo 服务
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlerApp.HTTPErrorHandler
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l.Info("request",
				zap.String("URI", v.URI),
				zap.String("method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)

			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.DefaultSecureConfig))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.System.FrontendURL},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("10M"))

	// 绑定 echo 服务
	handlerApp.RegisterHandlers(e, auth)

	// 添加 API 文档
	if !cfg.System.IsProd {
		if specJSON, err := apidocs.Spec(context.Background()); err != nil {
			l.Error("error initializing api docs", zap.Error(err))
		} else {
			e.Pre(apidocs.Doc("/api/docs", specJSON))
		}
	}

	// 启动 echo 服务
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		l.Info("server started", zap.String("listen", cfg.System.Listen))
		if err := e.Start(cfg.System.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error("error shutting down the server", zap.Error(err))
	}

	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
